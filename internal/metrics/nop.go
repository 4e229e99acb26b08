// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/keepalive/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	s := keepalive.NewScheduler(&cfg, keepalive.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// SchedulerMetrics implementation

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State) {
	// No-op
}

// RecordTimerArmed discards the timer armed metric.
func (n *NopMetrics) RecordTimerArmed(_ /* delay */ float64) {
	// No-op
}

// RecordTimerCancelled discards the timer cancelled metric.
func (n *NopMetrics) RecordTimerCancelled() {
	// No-op
}

// RecordHeartbeatFired discards the heartbeat fired metric.
func (n *NopMetrics) RecordHeartbeatFired(_ /* connID */ string) {
	// No-op
}

// ProbeMetrics implementation

// RecordProbeResult discards the probe result metric.
func (n *NopMetrics) RecordProbeResult(_ /* connID */, _ /* result */ string) {
	// No-op
}

// RecordGuardHeld discards the guard hold duration metric.
func (n *NopMetrics) RecordGuardHeld(_ /* connID */ string, _ /* seconds */ float64) {
	// No-op
}

// RecordGuardAcquireFailed discards the guard acquire failure metric.
func (n *NopMetrics) RecordGuardAcquireFailed(_ /* connID */ string) {
	// No-op
}
