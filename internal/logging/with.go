package logging

import "github.com/arloliu/keepalive/types"

// fieldLogger prepends a fixed set of key-value pairs to every log call.
type fieldLogger struct {
	next   types.Logger
	fields []any
}

var _ types.Logger = (*fieldLogger)(nil)

// With returns a logger that adds keysAndValues to every message logged through it.
//
// Parameters:
//   - logger: The logger to wrap (nil yields nil)
//   - keysAndValues: Alternating keys and values attached to each message
//
// Returns:
//   - types.Logger: The wrapping logger
//
// Example:
//
//	connLogger := logging.With(logger, "conn", conn.ID())
//	connLogger.Debug("timer armed")  // logs conn=<id>
func With(logger types.Logger, keysAndValues ...any) types.Logger {
	if logger == nil {
		return nil
	}
	if len(keysAndValues) == 0 {
		return logger
	}

	if sl, ok := logger.(*SlogLogger); ok {
		return sl.with(keysAndValues...)
	}

	if fl, ok := logger.(*fieldLogger); ok {
		fields := make([]any, 0, len(fl.fields)+len(keysAndValues))
		fields = append(fields, fl.fields...)
		fields = append(fields, keysAndValues...)

		return &fieldLogger{next: fl.next, fields: fields}
	}

	return &fieldLogger{next: logger, fields: append([]any(nil), keysAndValues...)}
}

func (l *fieldLogger) merge(keysAndValues []any) []any {
	out := make([]any, 0, len(l.fields)+len(keysAndValues))
	out = append(out, l.fields...)

	return append(out, keysAndValues...)
}

func (l *fieldLogger) Debug(msg string, keysAndValues ...any) {
	l.next.Debug(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Info(msg string, keysAndValues ...any) {
	l.next.Info(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Warn(msg string, keysAndValues ...any) {
	l.next.Warn(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Error(msg string, keysAndValues ...any) {
	l.next.Error(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Fatal(msg string, keysAndValues ...any) {
	l.next.Fatal(msg, l.merge(keysAndValues)...)
}
