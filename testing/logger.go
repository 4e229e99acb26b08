package testing

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/arloliu/keepalive/types"
)

// NewTestLogger returns a logger that writes through t.Logf.
//
// Scheduler hooks and probe completions run on background goroutines that can
// outlive the test; messages logged after the test's cleanup phase started are
// dropped instead of panicking.
func NewTestLogger(t testing.TB) types.Logger {
	l := &testLogger{t: t}
	t.Cleanup(func() {
		l.mu.Lock()
		l.done = true
		l.mu.Unlock()
	})

	return l
}

type testLogger struct {
	t    testing.TB
	mu   sync.Mutex
	done bool
}

var _ types.Logger = (*testLogger)(nil)

func (l *testLogger) log(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return
	}
	l.t.Helper()
	l.t.Logf("%-5s %s%s", level, msg, formatFields(keysAndValues))
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *testLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *testLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *testLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// Fatal fails the test immediately. Only call it from the test goroutine.
func (l *testLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Fatalf("FATAL %s%s", msg, formatFields(keysAndValues))
}

// formatFields renders key/value pairs as " k=v k=v"; a trailing odd key gets
// the value "!MISSING".
func formatFields(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		var v any = "!MISSING"
		if i+1 < len(keysAndValues) {
			v = keysAndValues[i+1]
		}
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], v)
	}

	return b.String()
}
