// Package logger provides structured logging for the application,
// wrapping a zap.Logger behind a small Init/New interface.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the underlying zap logger.
type Logger struct {
	// Log is the structured logger instance. It is a no-op logger
	// until Init is called.
	Log *zap.Logger
}

// New returns a Logger with a no-op zap instance, so callers may log
// safely even before Init.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds the real logger at the given level ("debug", "info",
// "warn", "error"; case-insensitive). An unknown or empty level
// defaults to info.
func (l *Logger) Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = log
	return nil
}
