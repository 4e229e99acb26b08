package keepalive

// Option configures a Scheduler or Group with optional dependencies.
type Option func(*schedulerOptions)

// schedulerOptions holds optional Scheduler configuration.
type schedulerOptions struct {
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	guards  GuardProvider
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewScheduler
//
// Example:
//
//	hooks := &keepalive.Hooks{
//	    OnProbeFailed: func(ctx context.Context, connID string, err error) error {
//	        return reconnect(connID)
//	    },
//	}
//	s, err := keepalive.NewScheduler(&cfg, keepalive.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *schedulerOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewScheduler
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "")
//	s, err := keepalive.NewScheduler(&cfg, keepalive.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *schedulerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewScheduler
//
// Example:
//
//	logger := keepalive.NewSlogLogger(slog.Default())
//	s, err := keepalive.NewScheduler(&cfg, keepalive.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *schedulerOptions) {
		o.logger = logger
	}
}

// WithGuardProvider sets the sleep guard provider.
//
// Defaults to sleepguard.NewDefaultProvider(), the platform inhibitor.
//
// Parameters:
//   - guards: GuardProvider implementation
//
// Returns:
//   - Option: Functional option for NewScheduler
//
// Example:
//
//	s, err := keepalive.NewScheduler(&cfg, keepalive.WithGuardProvider(sleepguard.NewNopProvider()))
func WithGuardProvider(guards GuardProvider) Option {
	return func(o *schedulerOptions) {
		o.guards = guards
	}
}
