// Package logger provides the zap-backed adapter for the logging interface.
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter adapts a *zap.Logger to the context-aware logging interface used
// throughout the application.
type ZapAdapter struct {
	log *zap.Logger
}

// NewZapAdapter creates a new ZapAdapter wrapping the given zap logger.
func NewZapAdapter(log *zap.Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// NewProduction creates a ZapAdapter over a production zap logger at the
// given level ("debug", "info", "warn", "error"; anything else means info).
func NewProduction(level string) (*ZapAdapter, error) {
	cfg := zap.NewProductionConfig()
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapAdapter(log), nil
}

// Info logs an info message.
func (a *ZapAdapter) Info(_ context.Context, msg string, fields map[string]interface{}) {
	a.log.Info(msg, zapFields(fields)...)
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(_ context.Context, msg string, fields map[string]interface{}) {
	a.log.Debug(msg, zapFields(fields)...)
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(_ context.Context, msg string, fields map[string]interface{}) {
	a.log.Warn(msg, zapFields(fields)...)
}

// Error logs an error message with the associated error.
func (a *ZapAdapter) Error(_ context.Context, msg string, err error, fields map[string]interface{}) {
	a.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

// Sync flushes buffered log entries.
func (a *ZapAdapter) Sync() error {
	return a.log.Sync()
}

func zapFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
