package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("warn", &buf, FileLogConfig{})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", zap.Int("pads", 3))
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), `"pads": 3`)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.log")
	log, err := NewLogger("debug", nil, DefaultFileLogConfig(path))
	require.NoError(t, err)

	log.Debug("pad target", zap.String("pad", "Map:Jumppad1"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "pad target", entry["msg"])
	assert.Equal(t, "Map:Jumppad1", entry["pad"])
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("loud", nil, FileLogConfig{})
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}
