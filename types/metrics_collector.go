package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	SchedulerMetrics
	ProbeMetrics
}

// Probe result labels passed to RecordProbeResult.
const (
	ProbeResultSuccess = "success"
	ProbeResultFailure = "failure"
	ProbeResultSkipped = "skipped"
)

// SchedulerMetrics defines metrics for scheduler timer operations.
type SchedulerMetrics interface {
	// RecordStateTransition records a scheduler state transition event.
	RecordStateTransition(from, to State)

	// RecordTimerArmed records a timer installation.
	//
	// Parameters:
	//   - delay: Delay until the deadline in seconds
	RecordTimerArmed(delay float64)

	// RecordTimerCancelled records a pending timer that was cancelled before it fired.
	RecordTimerCancelled()

	// RecordHeartbeatFired records a heartbeat action execution.
	//
	// Parameters:
	//   - connID: The connection identifier
	RecordHeartbeatFired(connID string)
}

// ProbeMetrics defines metrics for liveness probes and sleep guards.
type ProbeMetrics interface {
	// RecordProbeResult records a probe outcome.
	//
	// Parameters:
	//   - connID: The connection identifier
	//   - result: One of ProbeResultSuccess, ProbeResultFailure, ProbeResultSkipped
	RecordProbeResult(connID string, result string)

	// RecordGuardHeld records how long a sleep guard was held.
	//
	// Parameters:
	//   - connID: The connection identifier
	//   - seconds: Hold duration in seconds
	RecordGuardHeld(connID string, seconds float64)

	// RecordGuardAcquireFailed records a failed sleep guard acquisition.
	RecordGuardAcquireFailed(connID string)
}
