package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatFields(t *testing.T) {
	require.Empty(t, formatFields(nil))
	require.Equal(t, " conn=c1 delay=1s", formatFields([]any{"conn", "c1", "delay", "1s"}))
	require.Equal(t, " conn=c1 tag=!MISSING", formatFields([]any{"conn", "c1", "tag"}))
}

func TestTestLogger_DropsAfterCleanup(t *testing.T) {
	var logger interface{ Info(string, ...any) }

	t.Run("inner", func(t *testing.T) {
		l := NewTestLogger(t)
		l.Debug("inside test", "conn", "c1")
		logger = l
	})

	require.NotPanics(t, func() {
		logger.Info("after test completed", "conn", "c1")
	})
}
