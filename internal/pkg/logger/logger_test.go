package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup("info", "json", &buf)

	l.Debug("hidden")
	l.Info("list fetch completed", slog.String("resource", "menus"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "list fetch completed", line["msg"])
	assert.Equal(t, "menus", line["resource"])
}

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	Setup("warn", "text", &buf).Warn("invalidation failed")
	assert.Contains(t, buf.String(), "msg=\"invalidation failed\"")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
