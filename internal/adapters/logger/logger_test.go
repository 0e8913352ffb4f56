package logger_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/internal/adapters/logger"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return logger.FromZap(zap.New(core)), logs
}

func TestLogger_Levels(t *testing.T) {
	lg, logs := newObserved(zap.DebugLevel)

	lg.Debug("cache hit", "xid", "1:a:b")
	lg.Info("started")
	lg.Warn("optimistic lock conflict", "version", int64(3))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "1:a:b", entries[0].ContextMap()["xid"])
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, int64(3), entries[2].ContextMap()["version"])
}

func TestLogger_Error(t *testing.T) {
	lg, logs := newObserved(zap.InfoLevel)

	lg.Error(errors.New("boom"), "op", "update")

	entries := logs.FilterMessage("operation failed").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "update", ctx["op"])
}

func TestLogger_ErrorMetadata(t *testing.T) {
	lg, logs := newObserved(zap.InfoLevel)

	err := zerr.With(zerr.Wrap(domain.ErrSnapshot, "encode failed"), "xid", "1:a:b")
	lg.Error(err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "1:a:b", entries[0].ContextMap()["xid"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	lg, logs := newObserved(zap.WarnLevel)

	lg.Debug("hidden")
	lg.Info("hidden")
	lg.Warn("shown")

	assert.Equal(t, 1, logs.Len())
}

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txlog.log")

	lg, err := logger.New(domain.LogConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	lg.Info("transaction created", "xid", "1:a:b")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &line))
	assert.Equal(t, "transaction created", line["msg"])
	assert.Equal(t, "1:a:b", line["xid"])
	assert.Equal(t, "txlog", line["service"])
	assert.Equal(t, "INFO", line["level"])
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txlog.log")

	lg, err := logger.New(domain.LogConfig{Level: "chatty", Format: "console", Output: path})
	require.NoError(t, err)

	lg.Debug("hidden")
	lg.Info("visible")
	require.NoError(t, lg.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestNew_BadOutput(t *testing.T) {
	_, err := logger.New(domain.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "txlog.log")})
	require.Error(t, err)
}
