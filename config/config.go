package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort    = "3000"
	DefaultTimeout = "2m"
)

// Config defines runtime settings for the relay.
type Config struct {
	Port             string `yaml:"port"`
	LogLevel         string `yaml:"logLevel"`
	LogFormat        string `yaml:"logFormat"`
	KeepAliveTimeout string `yaml:"keepAliveTimeout"`
	HeaderTimeout    string `yaml:"headerTimeout"`

	KeepAlive time.Duration `yaml:"-"`
	Header    time.Duration `yaml:"-"`
}

// LoadConfig loads configuration from a YAML file and environment overrides.
// An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Port:             DefaultPort,
		LogLevel:         "info",
		LogFormat:        "json",
		KeepAliveTimeout: DefaultTimeout,
		HeaderTimeout:    DefaultTimeout,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if logLevel := os.Getenv("SCRIPT_RELAY_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat := os.Getenv("SCRIPT_RELAY_LOG_FORMAT"); logFormat != "" {
		cfg.LogFormat = logFormat
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}

	var err error
	if c.KeepAlive, err = time.ParseDuration(c.KeepAliveTimeout); err != nil {
		return fmt.Errorf("parse keepAliveTimeout: %w", err)
	}
	if c.Header, err = time.ParseDuration(c.HeaderTimeout); err != nil {
		return fmt.Errorf("parse headerTimeout: %w", err)
	}
	return nil
}

// Addr is the listen address for the configured port.
func (c *Config) Addr() string {
	return net.JoinHostPort("", c.Port)
}

// DefaultConfigPath returns SCRIPT_RELAY_CONFIG, or "" when unset.
func DefaultConfigPath() string {
	return os.Getenv("SCRIPT_RELAY_CONFIG")
}
