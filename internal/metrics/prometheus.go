package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/keepalive/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing
// a PrometheusCollector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	stateTransitions *prometheus.CounterVec
	timersArmed      prometheus.Counter
	timerDelay       prometheus.Histogram
	timersCancelled  prometheus.Counter
	heartbeatsFired  *prometheus.CounterVec
	probeResults     *prometheus.CounterVec
	guardHeld        *prometheus.HistogramVec
	guardFailures    *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "keepalive" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "keepalive"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "state_transitions_total",
			Help:      "Total scheduler state transitions by from/to state.",
		}, []string{"from", "to"})

		p.timersArmed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "timers_armed_total",
			Help:      "Total heartbeat timers installed.",
		})

		p.timerDelay = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "timer_delay_seconds",
			Help:      "Requested delay of installed heartbeat timers in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		})

		p.timersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "timers_cancelled_total",
			Help:      "Total pending heartbeat timers cancelled before firing.",
		})

		p.heartbeatsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "heartbeats_fired_total",
			Help:      "Total heartbeat actions executed by connection.",
		}, []string{"conn"})

		p.probeResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "probe",
			Name:      "results_total",
			Help:      "Total liveness probe outcomes (success,failure,skipped) by connection.",
		}, []string{"conn", "result"})

		p.guardHeld = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "sleep_guard",
			Name:      "held_seconds",
			Help:      "Time a sleep guard was held per heartbeat in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms .. ~3.8s
		}, []string{"conn"})

		p.guardFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "sleep_guard",
			Name:      "acquire_failures_total",
			Help:      "Total sleep guard acquisitions that failed by connection.",
		}, []string{"conn"})

		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.timersArmed)
		p.reg.MustRegister(p.timerDelay)
		p.reg.MustRegister(p.timersCancelled)
		p.reg.MustRegister(p.heartbeatsFired)
		p.reg.MustRegister(p.probeResults)
		p.reg.MustRegister(p.guardHeld)
		p.reg.MustRegister(p.guardFailures)
	})
}

// RecordStateTransition increments the transition counter for from/to.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordTimerArmed counts an installed timer and observes its delay.
func (p *PrometheusCollector) RecordTimerArmed(delay float64) {
	p.ensureRegistered()
	p.timersArmed.Inc()
	p.timerDelay.Observe(delay)
}

// RecordTimerCancelled counts a pending timer cancelled before firing.
func (p *PrometheusCollector) RecordTimerCancelled() {
	p.ensureRegistered()
	p.timersCancelled.Inc()
}

// RecordHeartbeatFired counts a heartbeat action execution.
func (p *PrometheusCollector) RecordHeartbeatFired(connID string) {
	p.ensureRegistered()
	p.heartbeatsFired.WithLabelValues(connID).Inc()
}

// RecordProbeResult counts a probe outcome.
func (p *PrometheusCollector) RecordProbeResult(connID string, result string) {
	p.ensureRegistered()
	p.probeResults.WithLabelValues(connID, result).Inc()
}

// RecordGuardHeld observes a guard hold duration.
func (p *PrometheusCollector) RecordGuardHeld(connID string, seconds float64) {
	p.ensureRegistered()
	p.guardHeld.WithLabelValues(connID).Observe(seconds)
}

// RecordGuardAcquireFailed counts a failed guard acquisition.
func (p *PrometheusCollector) RecordGuardAcquireFailed(connID string) {
	p.ensureRegistered()
	p.guardFailures.WithLabelValues(connID).Inc()
}
