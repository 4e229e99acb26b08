// Package logging provides types.Logger adapters.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/arloliu/keepalive/types"
)

// LevelFatal sits above slog.LevelError so handlers print it as ERROR+4.
const LevelFatal = slog.LevelError + 4

// SlogLogger implements types.Logger on top of a *slog.Logger.
//
// With on a SlogLogger binds fields through slog's own attribute support, so
// handlers see them as pre-formatted attributes instead of per-call pairs.
type SlogLogger struct {
	logger *slog.Logger
	exit   func(code int)
}

var _ types.Logger = (*SlogLogger)(nil)

// NewSlog wraps logger.
//
// Example:
//
//	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
//	logger := logging.NewSlog(slog.New(handler))
//	logger.Info("scheduler started", "conn", "client-1")
func NewSlog(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger, exit: os.Exit}
}

// NewSlogDefault wraps slog.Default().
func NewSlogDefault() *SlogLogger {
	return NewSlog(slog.Default())
}

func (l *SlogLogger) with(keysAndValues ...any) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(keysAndValues...), exit: l.exit}
}

func (l *SlogLogger) log(level slog.Level, msg string, keysAndValues []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, msg, keysAndValues...)
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(slog.LevelDebug, msg, keysAndValues)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(slog.LevelInfo, msg, keysAndValues)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(slog.LevelWarn, msg, keysAndValues)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(slog.LevelError, msg, keysAndValues)
}

// Fatal logs at LevelFatal and exits the process with status 1.
func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.Log(context.Background(), LevelFatal, msg, keysAndValues...)
	l.exit(1)
}
