package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.NewDefaultConfig().Logger
	logger := NewLogger(cfg, zapcore.AddSync(&buf))

	logger.Debug("hidden")
	logger.Info("visible", zap.String("task_id", "t1"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "webagent")
	assert.Contains(t, out, `"task_id": "t1"`)
	assert.NotContains(t, out, "\x1b[", "plain writers get no color codes")
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "svc"}, zapcore.AddSync(&buf))
	logger.Named("cache").Debug("hit", zap.Int("actions", 3))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "svc.cache", entry["logger"])
	assert.Equal(t, "hit", entry["msg"])
	assert.EqualValues(t, 3, entry["actions"])
}

func TestNewLoggerBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))
	logger.Debug("no")
	logger.Info("yes")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webagent.log")
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&buf))
	logger.Warn("to file")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
	assert.Contains(t, buf.String(), "to file")
}
