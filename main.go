package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mstreet3/script-relayer/app"
	"github.com/mstreet3/script-relayer/client"
	"github.com/mstreet3/script-relayer/config"
	"github.com/mstreet3/script-relayer/domain"
	"github.com/mstreet3/script-relayer/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "script-relay",
		Short:         "Buffer base64 scripts until a consumer drains them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("server", client.DefaultEndpoint, "relay endpoint for client commands")

	rootCmd.AddCommand(
		serveCmd(),
		submitCmd(),
		drainCmd(),
		lastDrainCmd(),
	)
	return rootCmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetString("port")
			}

			logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.NewApplication(cfg, logger)
			stopped, err := application.Start(ctx)
			if err != nil {
				return fmt.Errorf("start relay: %w", err)
			}

			<-stopped
			logger.Info("app is stopped, goodbye")
			return nil
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.String("config", config.DefaultConfigPath(), "config file (YAML)")
	fs.String("port", config.DefaultPort, "listen port (overrides PORT)")
}

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [file]",
		Short: "Encode a script and add it to the relay buffer",
		Long:  "Reads the script from file, or stdin when no file is given, base64-encodes it and submits it.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}

			raw, _ := cmd.Flags().GetBool("raw")
			payload := base64.StdEncoding.EncodeToString(data)
			if raw {
				payload = strings.TrimSpace(string(data))
			}

			if err := relayClient(cmd).Submit(cmd.Context(), payload); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "submit input as an already-encoded payload")
	return cmd
}

func drainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Drain the relay buffer and print each script on its own line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := relayClient(cmd).Drain(cmd.Context())
			if err != nil {
				return err
			}

			decode, _ := cmd.Flags().GetBool("decode")
			out := cmd.OutOrStdout()
			for _, script := range result.Scripts {
				if !decode {
					fmt.Fprintln(out, script)
					continue
				}
				data, err := base64.StdEncoding.DecodeString(script)
				if err != nil {
					return fmt.Errorf("decode script: %w", err)
				}
				fmt.Fprintln(out, string(data))
			}
			return nil
		},
	}
	cmd.Flags().Bool("decode", false, "base64-decode scripts before printing")
	return cmd
}

func lastDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-drain",
		Short: "Show when the relay buffer was last drained",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			last, err := relayClient(cmd).LastDrain(cmd.Context())
			if err != nil {
				return err
			}
			if !last.Drained {
				fmt.Fprintln(cmd.OutOrStdout(), "never")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", domain.FormatTimestamp(last.DrainedAt), last.EpochMs())
			return nil
		},
	}
}

func relayClient(cmd *cobra.Command) *client.Client {
	endpoint, _ := cmd.Flags().GetString("server")
	return client.New(endpoint, nil)
}
