// Package natsconn adapts a *nats.Conn to the keepalive Connection interface.
//
// The liveness probe is a NATS PING/PONG round-trip (FlushWithContext). With
// SkipOnTraffic enabled, a probe is skipped when messages moved on the
// connection since the previous probe, because that traffic already proved
// liveness.
//
// Example:
//
//	nc, _ := nats.Connect(url)
//	conn := natsconn.New(nc, natsconn.Config{KeepAliveInterval: 30 * time.Second})
//	s, _ := keepalive.NewScheduler(&cfg)
//	_ = s.Init(conn)
//	conn.BindLifecycle(s, logger)
//	_ = s.Start()
package natsconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/arloliu/keepalive/probe"
	"github.com/arloliu/keepalive/types"
)

// DefaultProbeTimeout bounds a probe round-trip when Config.ProbeTimeout is unset.
const DefaultProbeTimeout = 5 * time.Second

// Config configures a NATS connection adapter.
type Config struct {
	// ID identifies the connection in guard tags and logs. A random UUID is
	// used when empty.
	ID string `yaml:"id"`

	// KeepAliveInterval is the maximum silence before a probe must be sent.
	KeepAliveInterval time.Duration `yaml:"keepAliveInterval"`

	// ProbeTimeout bounds one PING/PONG round-trip.
	ProbeTimeout time.Duration `yaml:"probeTimeout"`

	// SkipOnTraffic skips a probe when messages were sent or received since
	// the previous probe.
	SkipOnTraffic bool `yaml:"skipOnTraffic"`
}

// Conn is a keepalive Connection backed by a NATS client connection.
type Conn struct {
	nc            *nats.Conn
	id            string
	interval      time.Duration
	timeout       time.Duration
	skipOnTraffic bool

	mu      sync.Mutex
	primed  bool
	lastIn  uint64
	lastOut uint64
}

var _ types.Connection = (*Conn)(nil)

// New wraps nc. The NATS connection stays owned by the caller.
func New(nc *nats.Conn, cfg Config) *Conn {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}

	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	return &Conn{
		nc:            nc,
		id:            id,
		interval:      cfg.KeepAliveInterval,
		timeout:       timeout,
		skipOnTraffic: cfg.SkipOnTraffic,
	}
}

// ID returns the connection ID.
func (c *Conn) ID() string {
	return c.id
}

// KeepAliveInterval returns the configured keep-alive interval.
func (c *Conn) KeepAliveInterval() time.Duration {
	return c.interval
}

// ProbeLiveness sends a PING and completes the token when the PONG arrives.
//
// Returns nil without probing when the connection is closed, or when
// SkipOnTraffic is set and messages moved since the previous probe.
func (c *Conn) ProbeLiveness(onSuccess func(), onFailure func(err error)) types.PingToken {
	if c.nc.IsClosed() {
		return nil
	}

	moved := c.trafficSinceLastProbe()
	if c.skipOnTraffic && moved {
		return nil
	}

	token := probe.NewToken(onSuccess, onFailure)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.nc.FlushWithContext(ctx); err != nil {
			token.Fail(classifyFlushError(err))
			return
		}
		token.Succeed()
	}()

	return token
}

// trafficSinceLastProbe reports whether message counters moved since the
// previous call. The first call always reports false.
func (c *Conn) trafficSinceLastProbe() bool {
	stats := c.nc.Stats()

	c.mu.Lock()
	defer c.mu.Unlock()

	moved := c.primed && (stats.InMsgs != c.lastIn || stats.OutMsgs != c.lastOut)
	c.primed = true
	c.lastIn = stats.InMsgs
	c.lastOut = stats.OutMsgs

	return moved
}

// Lifecycle is the part of a scheduler that follows the connection state.
type Lifecycle interface {
	Start() error
	Stop()
}

// BindLifecycle stops l when the NATS connection drops or closes and starts
// it again after a reconnect.
//
// It replaces any disconnect, reconnect, and closed handlers set on the
// underlying connection.
func (c *Conn) BindLifecycle(l Lifecycle, logger types.Logger) {
	c.nc.SetDisconnectErrHandler(func(_ *nats.Conn, err error) {
		logger.Warn("nats connection lost, stopping keep-alive", "conn", c.id, "error", err)
		l.Stop()
	})
	c.nc.SetReconnectHandler(func(nc *nats.Conn) {
		logger.Info("nats connection restored, starting keep-alive", "conn", c.id, "url", nc.ConnectedUrlRedacted())
		if err := l.Start(); err != nil {
			logger.Error("failed to restart keep-alive", "conn", c.id, "error", err)
		}
	})
	c.nc.SetClosedHandler(func(_ *nats.Conn) {
		logger.Info("nats connection closed, stopping keep-alive", "conn", c.id)
		l.Stop()
	})
}

func classifyFlushError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
		return fmt.Errorf("%w: %w", types.ErrProbeTimeout, err)
	case errors.Is(err, nats.ErrConnectionClosed), types.IsConnectionClosedError(err):
		return fmt.Errorf("%w: %w", types.ErrConnectionClosed, err)
	default:
		return fmt.Errorf("nats flush: %w", err)
	}
}
