package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.want, ParseLevel(tc.in))
		})
	}
}

func TestNew_JSONByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "")
	logger.Debug("hidden")
	logger.Info("script_added", "id", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "script_added", line["msg"])
	require.Equal(t, "abc", line["id"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "TEXT")
	logger.Debug("drained", "count", 2)

	require.True(t, strings.Contains(buf.String(), "msg=drained"))
	require.True(t, strings.Contains(buf.String(), "count=2"))
}
