// Package logger implements a logging adapter using zap.
package logger

import (
	"errors"
	"os"
	"strings"

	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ ports.Logger = (*Logger)(nil)

// Logger implements ports.Logger on a zap.SugaredLogger.
type Logger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
	close func() error
}

// New builds a Logger from cfg. An unrecognised level falls back to info.
func New(cfg domain.LogConfig) (*Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	sink, closeSink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, level)
	l := FromZap(zap.New(core).With(zap.String("service", "txlog")))
	l.close = closeSink
	return l, nil
}

// FromZap wraps an existing zap logger.
func FromZap(base *zap.Logger) *Logger {
	return &Logger{
		base:  base,
		sugar: base.Sugar(),
		close: func() error { return nil },
	}
}

func newEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if strings.EqualFold(format, "json") {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func openSink(output string) (zapcore.WriteSyncer, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(output) {
	case "stderr", "":
		return zapcore.Lock(os.Stderr), noop, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), noop, nil
	default:
		//nolint:gosec // Path comes from the operator's configuration
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, zerr.With(zerr.Wrap(err, "failed to open log file"), "path", output)
		}
		return zapcore.AddSync(f), f.Close, nil
	}
}

// Debug logs a debug message with key/value pairs.
func (l *Logger) Debug(msg string, kv ...any) {
	l.sugar.Debugw(msg, kv...)
}

// Info logs an informational message with key/value pairs.
func (l *Logger) Info(msg string, kv ...any) {
	l.sugar.Infow(msg, kv...)
}

// Warn logs a warning message with key/value pairs.
func (l *Logger) Warn(msg string, kv ...any) {
	l.sugar.Warnw(msg, kv...)
}

// Error logs err. Metadata attached with zerr.With is emitted as fields.
func (l *Logger) Error(err error, kv ...any) {
	fields := make([]any, 0, len(kv)+1)
	fields = append(fields, zap.Error(err))
	fields = append(fields, kv...)

	var zErr *zerr.Error
	if errors.As(err, &zErr) {
		for k, v := range zErr.Metadata() {
			fields = append(fields, zap.Any(k, v))
		}
	}

	l.sugar.Errorw("operation failed", fields...)
}

// Zap exposes the underlying logger.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// Close flushes buffered entries and releases a log file if one was opened.
func (l *Logger) Close() error {
	_ = l.base.Sync()
	return l.close()
}
