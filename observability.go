package keepalive

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/keepalive/internal/logging"
	"github.com/arloliu/keepalive/internal/metrics"
)

// NewPrometheusMetrics returns a MetricsCollector backed by Prometheus.
//
// Collectors register with reg on first use. Share one collector between all
// schedulers of a process; a second collector on the same registry panics on
// first use.
//
// Parameters:
//   - reg: Registerer (prometheus.DefaultRegisterer if nil)
//   - namespace: Metric namespace ("keepalive" if empty)
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}

// NewSlogLogger adapts a *slog.Logger to Logger. A nil logger uses slog.Default().
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		return logging.NewSlogDefault()
	}

	return logging.NewSlog(logger)
}
