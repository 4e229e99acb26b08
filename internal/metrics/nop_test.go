package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/keepalive/types"
)

func TestNewNop(t *testing.T) {
	metrics := NewNop()

	require.NotNil(t, metrics)
	require.IsType(t, &NopMetrics{}, metrics)
}

func TestNopMetrics_SchedulerMetrics(t *testing.T) {
	metrics := NewNop()

	require.NotPanics(t, func() {
		metrics.RecordStateTransition(types.StateStopped, types.StateArmed)
		metrics.RecordStateTransition(types.State(999), types.State(1000))
		metrics.RecordTimerArmed(1.5)
		metrics.RecordTimerArmed(-1)
		metrics.RecordTimerCancelled()
		metrics.RecordHeartbeatFired("client-1")
		metrics.RecordHeartbeatFired("")
	})
}

func TestNopMetrics_ProbeMetrics(t *testing.T) {
	metrics := NewNop()

	require.NotPanics(t, func() {
		metrics.RecordProbeResult("client-1", types.ProbeResultSuccess)
		metrics.RecordProbeResult("client-1", "unknown")
		metrics.RecordGuardHeld("client-1", 0.05)
		metrics.RecordGuardAcquireFailed("client-1")
	})
}
