package keepalive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/keepalive/internal/heartbeat"
	"github.com/arloliu/keepalive/internal/hooks"
	"github.com/arloliu/keepalive/internal/logging"
	"github.com/arloliu/keepalive/internal/metrics"
	"github.com/arloliu/keepalive/internal/worker"
	"github.com/arloliu/keepalive/sleepguard"
)

// Scheduler sends keep-alive probes for one connection.
//
// A Scheduler owns at most one pending timer and one dedicated worker
// goroutine. When the timer fires the worker runs the heartbeat action:
// acquire a sleep guard, issue the connection's liveness probe, and release
// the guard when the probe completes.
//
// Lifecycle:
//
//	Init(conn) → Start() → [Schedule(d)]* → Stop() → Start() → ...
//
// All methods are safe for concurrent use. Stop never blocks and never fails.
type Scheduler struct {
	cfg     Config
	logger  Logger
	metrics MetricsCollector
	hooks   Hooks
	guards  GuardProvider

	mu      sync.Mutex
	conn    Connection
	connID  string
	action  *heartbeat.Action
	state   State
	started bool
	firing  bool
	worker  *worker.Worker
	// prevDone is the Done channel of the last shut-down worker; the next
	// worker waits on it so an action left running by Stop never overlaps
	// the first action of the next start cycle.
	prevDone <-chan struct{}
	pending  *worker.Task
	timerID  uint64
	// epoch changes on every Stop so firings dispatched before it cannot
	// touch the state of a later start cycle.
	epoch uint64
}

// NewScheduler creates a Scheduler in the Uninitialized state.
//
// Parameters:
//   - cfg: Scheduler configuration (defaults are applied to a copy)
//   - opts: Optional configuration (hooks, metrics, logger, guard provider)
//
// Returns:
//   - *Scheduler: Scheduler awaiting Init
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	cfg := keepalive.DefaultConfig()
//	s, err := keepalive.NewScheduler(&cfg, keepalive.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := s.Init(conn); err != nil {
//	    return err
//	}
//	_ = s.Start()
//	defer s.Stop()
func NewScheduler(cfg *Config, opts ...Option) (*Scheduler, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}

	c := *cfg
	ApplyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &schedulerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return newScheduler(c, options), nil
}

// newScheduler builds a Scheduler from a validated config and resolved options.
func newScheduler(cfg Config, options *schedulerOptions) *Scheduler {
	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	var loggerInstance Logger = logging.NewNop()
	if options.logger != nil {
		loggerInstance = options.logger
	}

	cfg.ValidateWithWarnings(loggerInstance)

	guards := options.guards
	if guards == nil {
		guards = sleepguard.NewDefaultProvider()
	}

	return &Scheduler{
		cfg:     cfg,
		logger:  loggerInstance,
		metrics: metricsCollector,
		hooks:   hooks.WithDefaults(options.hooks),
		guards:  guards,
		state:   StateUninitialized,
	}
}

// Init binds the connection and derives its sleep guard tag.
//
// Init does not arm a timer: timers exist only while the scheduler is
// started, and Start arms the first one.
//
// Parameters:
//   - conn: Connection to keep alive (not owned; the caller manages its lifetime)
//
// Returns:
//   - error: ErrConnectionRequired, ErrInvalidConnection, ErrInvalidKeepAlive,
//     or ErrAlreadyInitialized
func (s *Scheduler) Init(conn Connection) error {
	if conn == nil {
		return ErrConnectionRequired
	}

	id := conn.ID()
	if id == "" {
		return fmt.Errorf("%w: empty connection ID", ErrInvalidConnection)
	}
	if interval := conn.KeepAliveInterval(); interval <= 0 {
		return fmt.Errorf("%w: connection %s has interval %v", ErrInvalidKeepAlive, id, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return fmt.Errorf("%w: bound to connection %s", ErrAlreadyInitialized, s.connID)
	}

	s.conn = conn
	s.connID = id
	s.logger = logging.With(s.logger, "conn", id)
	s.action = &heartbeat.Action{
		Conn:           conn,
		Tag:            s.cfg.GuardTagPrefix + id,
		Guards:         s.guards,
		Logger:         s.logger,
		Metrics:        s.metrics,
		Hooks:          s.hooks,
		AcquireTimeout: s.cfg.GuardAcquireTimeout,
		MaxGuardHold:   s.cfg.MaxGuardHold,
	}
	s.syncStateLocked()

	return nil
}

// Start marks the scheduler started and arms a timer one keep-alive interval
// from now. Calling Start while already started re-arms the timer.
//
// Returns:
//   - error: ErrNotInitialized before Init, ErrInvalidKeepAlive if the
//     connection's interval is no longer positive
func (s *Scheduler) Start() error {
	return s.startWithDelay(nil)
}

// startWithDelay starts the scheduler and arms its timer in one locked step.
// delayFor maps the connection's interval to the first delay; nil means a
// full interval.
func (s *Scheduler) startWithDelay(delayFor func(interval time.Duration) time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotInitialized
	}

	interval := s.conn.KeepAliveInterval()
	if interval <= 0 {
		return fmt.Errorf("%w: connection %s has interval %v", ErrInvalidKeepAlive, s.connID, interval)
	}

	if !s.started {
		s.logger.Info("keep-alive scheduler started", "interval", interval)
	}
	delay := interval
	if delayFor != nil {
		delay = delayFor(interval)
	}

	s.started = true
	s.armLocked(delay)
	s.syncStateLocked()

	return nil
}

// Stop cancels the pending timer and shuts down the worker.
//
// A heartbeat action already running is not waited for; its guard is still
// released by the probe completion. Stop on a scheduler that is not started
// is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.firing = false
	s.epoch++
	s.cancelPendingLocked()

	if s.worker != nil {
		s.worker.Shutdown()
		s.prevDone = s.worker.Done()
		s.worker = nil
	}

	s.logger.Info("keep-alive scheduler stopped")
	s.syncStateLocked()
}

// Schedule replaces the pending timer with one that fires after delay.
//
// A non-positive delay fires as soon as the worker is free. The previous
// timer, if any, is cancelled; cancelling a timer that already fired is a
// no-op.
//
// Parameters:
//   - delay: Time from now until the heartbeat fires
//
// Returns:
//   - error: ErrNotInitialized before Init, ErrNotStarted while stopped
func (s *Scheduler) Schedule(delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotInitialized
	}
	if !s.started {
		return ErrNotStarted
	}

	s.armLocked(delay)
	s.syncStateLocked()

	return nil
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// IsStarted reports whether Start was called more recently than Stop.
func (s *Scheduler) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started
}

// ConnectionID returns the bound connection's ID, or "" before Init.
func (s *Scheduler) ConnectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connID
}

// NextDeadline returns when the pending timer fires.
//
// Returns:
//   - time.Time: Deadline of the pending timer
//   - bool: false if no timer is pending
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || !s.pending.Pending() {
		return time.Time{}, false
	}

	return s.pending.Deadline(), true
}

// pendingTimers returns the number of queued timer tasks on the worker.
func (s *Scheduler) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.worker == nil {
		return 0
	}

	return s.worker.Pending()
}

// armLocked cancels the pending timer and installs a new one after delay.
// The worker is created on first use after a Stop.
func (s *Scheduler) armLocked(delay time.Duration) {
	s.cancelPendingLocked()

	if delay < 0 {
		delay = 0
	}

	if s.worker == nil {
		s.worker = worker.NewAfter(s.connID, s.prevDone, s.onPanic)
		s.prevDone = nil
	}

	s.timerID++
	id, epoch := s.timerID, s.epoch
	s.pending = s.worker.ScheduleAt(time.Now().Add(delay), func() {
		s.fire(id, epoch)
	})

	s.metrics.RecordTimerArmed(delay.Seconds())
	s.logger.Debug("timer armed", "delay", delay)
}

func (s *Scheduler) cancelPendingLocked() {
	if s.pending == nil {
		return
	}

	if s.pending.Cancel() {
		s.metrics.RecordTimerCancelled()
	}
	s.pending = nil
}

// fire runs on the worker goroutine when a timer expires.
func (s *Scheduler) fire(id, epoch uint64) {
	s.mu.Lock()
	if s.pending != nil && s.timerID == id {
		s.pending = nil
	}
	if !s.started || s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.firing = true
	s.syncStateLocked()
	action := s.action
	s.mu.Unlock()

	defer s.fired(epoch)

	action.Run()
}

// fired leaves the Firing state once the heartbeat action body returned.
func (s *Scheduler) fired(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.epoch != epoch {
		return
	}

	s.firing = false
	if s.cfg.RearmOnFire && s.pending == nil {
		if interval := s.conn.KeepAliveInterval(); interval > 0 {
			s.armLocked(interval)
		}
	}
	s.syncStateLocked()
}

func (s *Scheduler) onPanic(v any) {
	s.mu.Lock()
	logger := s.logger
	s.mu.Unlock()

	err := fmt.Errorf("heartbeat action panicked: %v", v)
	logger.Error("heartbeat action panicked", "panic", v)

	go func() {
		if hookErr := s.hooks.OnError(context.Background(), err); hookErr != nil {
			logger.Error("error hook failed", "error", hookErr)
		}
	}()
}

// deriveStateLocked computes the state from the scheduler fields.
func (s *Scheduler) deriveStateLocked() State {
	switch {
	case s.conn == nil:
		return StateUninitialized
	case !s.started:
		return StateStopped
	case s.firing:
		return StateFiring
	case s.pending != nil:
		return StateArmed
	default:
		return StateIdle
	}
}

// syncStateLocked records a state transition if the derived state changed.
func (s *Scheduler) syncStateLocked() {
	to := s.deriveStateLocked()
	from := s.state
	if to == from {
		return
	}
	s.state = to

	s.logger.Debug("state transition",
		"from", from.String(),
		"to", to.String(),
	)

	// Record metrics (always non-nil, defaults to nopMetrics)
	s.metrics.RecordStateTransition(from, to)

	connID, logger := s.connID, s.logger
	// Run hook in background to avoid blocking the state machine
	go func() {
		if err := s.hooks.OnStateChanged(context.Background(), connID, from, to); err != nil {
			logger.Error("state change hook error", "from", from, "to", to, "error", err)
		}
	}()
}

// interval returns the bound connection's current keep-alive interval.
func (s *Scheduler) interval() time.Duration {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return 0
	}

	return conn.KeepAliveInterval()
}
