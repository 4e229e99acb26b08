package logging

import "github.com/arloliu/keepalive/types"

// NopLogger discards every message. Fatal does not exit.
type NopLogger struct{}

var _ types.Logger = NopLogger{}

// NewNop returns a logger that discards all messages.
//
// This is the scheduler's default logger when WithLogger is not supplied.
func NewNop() NopLogger {
	return NopLogger{}
}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Fatal(string, ...any) {}
