package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewHandler(&buf, "warn", FormatJSON))
	logger.Info("hidden")
	logger.Warn("auto-save failed", "workflow_id", "wf-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "auto-save failed", entry["msg"])
	assert.Equal(t, "wf-1", entry["workflow_id"])
}

func TestNewHandler_TextHasNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer

	slog.New(NewHandler(&buf, "info", FormatText)).Info("loaded", "templates", 3)

	assert.Contains(t, buf.String(), "loaded")
	assert.Contains(t, buf.String(), "templates=3")
	assert.NotContains(t, buf.String(), "\x1b[")
}
