package keepalive

import (
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"
)

// Group manages one Scheduler per connection for a hosting service.
//
// Every scheduler in a group shares the group's configuration, logger,
// metrics, hooks, and guard provider. With Config.StaggerWindow set, first
// firings are spread across the window so that many connections opened
// together do not wake the host at the same instant.
//
// Group is safe for concurrent use.
type Group struct {
	cfg        Config
	options    *schedulerOptions
	schedulers *xsync.Map[string, *Scheduler]
}

// NewGroup creates an empty Group.
//
// Parameters:
//   - cfg: Configuration shared by every scheduler (defaults are applied to a copy)
//   - opts: Optional configuration shared by every scheduler
//
// Returns:
//   - *Group: Empty group
//   - error: Validation error if configuration is invalid
//
// Example:
//
//	group, err := keepalive.NewGroup(&cfg, keepalive.WithMetrics(collector))
//	s, err := group.Add(conn)
//	err = group.Start(conn.ID())
func NewGroup(cfg *Config, opts ...Option) (*Group, error) {
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

	return &Group{
		cfg:        c,
		options:    options,
		schedulers: xsync.NewMap[string, *Scheduler](),
	}, nil
}

// Add creates and initializes a scheduler for conn. The scheduler is not started.
//
// Parameters:
//   - conn: Connection to keep alive
//
// Returns:
//   - *Scheduler: The initialized scheduler
//   - error: Init error, or ErrSchedulerExists if conn's ID is already tracked
func (g *Group) Add(conn Connection) (*Scheduler, error) {
	s := newScheduler(g.cfg, g.options)
	if err := s.Init(conn); err != nil {
		return nil, err
	}

	if _, loaded := g.schedulers.LoadOrStore(conn.ID(), s); loaded {
		return nil, fmt.Errorf("%w: %s", ErrSchedulerExists, conn.ID())
	}

	return s, nil
}

// Get returns the scheduler for a connection ID.
func (g *Group) Get(id string) (*Scheduler, bool) {
	return g.schedulers.Load(id)
}

// Start starts the scheduler for id.
//
// With a stagger window the first firing happens StaggerOffset(id) earlier
// than a full interval; later firings are not affected.
//
// Returns:
//   - error: ErrSchedulerNotFound, or the Start error
func (g *Group) Start(id string) error {
	s, ok := g.schedulers.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchedulerNotFound, id)
	}

	offset := g.StaggerOffset(id)
	if offset == 0 {
		return s.Start()
	}

	return s.startWithDelay(func(interval time.Duration) time.Duration {
		if offset >= interval {
			offset = interval / 2
		}

		return interval - offset
	})
}

// Stop stops the scheduler for id.
//
// Returns:
//   - error: ErrSchedulerNotFound if id is not tracked
func (g *Group) Stop(id string) error {
	s, ok := g.schedulers.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchedulerNotFound, id)
	}
	s.Stop()

	return nil
}

// Touch re-arms the scheduler for id at a full keep-alive interval.
//
// Call Touch whenever traffic on the connection proves liveness; the next
// probe is then pushed out by one interval.
//
// Returns:
//   - error: ErrSchedulerNotFound, or ErrNotStarted if the scheduler is stopped
func (g *Group) Touch(id string) error {
	s, ok := g.schedulers.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchedulerNotFound, id)
	}

	return s.Schedule(s.interval())
}

// Remove stops the scheduler for id and forgets it.
//
// Returns:
//   - error: ErrSchedulerNotFound if id is not tracked
func (g *Group) Remove(id string) error {
	s, ok := g.schedulers.LoadAndDelete(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchedulerNotFound, id)
	}
	s.Stop()

	return nil
}

// StopAll stops every scheduler in the group. Schedulers stay registered and
// can be started again.
func (g *Group) StopAll() {
	g.schedulers.Range(func(_ string, s *Scheduler) bool {
		s.Stop()
		return true
	})
}

// Len returns the number of tracked schedulers.
func (g *Group) Len() int {
	return g.schedulers.Size()
}

// StaggerOffset returns how much earlier than a full interval the first
// firing for id happens. The offset is stable for a given id and lies in
// [0, StaggerWindow).
func (g *Group) StaggerOffset(id string) time.Duration {
	if g.cfg.StaggerWindow <= 0 {
		return 0
	}

	return time.Duration(xxh3.HashString(id) % uint64(g.cfg.StaggerWindow))
}
