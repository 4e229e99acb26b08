// Package wsconn adapts a gorilla/websocket connection to the keepalive
// Connection interface.
//
// The liveness probe is a websocket ping control frame. Any pong received
// afterwards completes every outstanding probe; a probe with no pong within
// PongTimeout fails with ErrProbeTimeout.
//
// Pongs are only processed while the application reads from the connection,
// so the caller must keep a read loop running:
//
//	conn := wsconn.New(ws, wsconn.Config{KeepAliveInterval: 30 * time.Second})
//	go func() {
//	    defer conn.MarkClosed(nil)
//	    for {
//	        if _, _, err := ws.ReadMessage(); err != nil {
//	            return
//	        }
//	    }
//	}()
package wsconn

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arloliu/keepalive/probe"
	"github.com/arloliu/keepalive/types"
)

const (
	// DefaultWriteTimeout bounds writing the ping frame.
	DefaultWriteTimeout = 10 * time.Second
	// DefaultPongTimeout bounds the wait for the pong.
	DefaultPongTimeout = 10 * time.Second
)

// Config configures a websocket connection adapter.
type Config struct {
	// ID identifies the connection in guard tags and logs. A random UUID is
	// used when empty.
	ID string `yaml:"id"`

	// KeepAliveInterval is the maximum silence before a probe must be sent.
	KeepAliveInterval time.Duration `yaml:"keepAliveInterval"`

	// WriteTimeout bounds writing the ping control frame.
	WriteTimeout time.Duration `yaml:"writeTimeout"`

	// PongTimeout bounds the wait for a pong after the ping was written.
	PongTimeout time.Duration `yaml:"pongTimeout"`
}

type pendingPing struct {
	token *probe.Token
	timer *time.Timer
}

// Conn is a keepalive Connection backed by a websocket connection.
type Conn struct {
	ws           *websocket.Conn
	id           string
	interval     time.Duration
	writeTimeout time.Duration
	pongTimeout  time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]*pendingPing
	closed  bool
}

var _ types.Connection = (*Conn)(nil)

// New wraps ws and installs a pong handler that chains to the existing one.
// The websocket connection stays owned by the caller.
func New(ws *websocket.Conn, cfg Config) *Conn {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}

	c := &Conn{
		ws:           ws,
		id:           id,
		interval:     cfg.KeepAliveInterval,
		writeTimeout: cfg.WriteTimeout,
		pongTimeout:  cfg.PongTimeout,
		pending:      make(map[uint64]*pendingPing),
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = DefaultWriteTimeout
	}
	if c.pongTimeout <= 0 {
		c.pongTimeout = DefaultPongTimeout
	}

	prev := ws.PongHandler()
	ws.SetPongHandler(func(appData string) error {
		c.handlePong()
		return prev(appData)
	})

	return c
}

// ID returns the connection ID.
func (c *Conn) ID() string {
	return c.id
}

// KeepAliveInterval returns the configured keep-alive interval.
func (c *Conn) KeepAliveInterval() time.Duration {
	return c.interval
}

// ProbeLiveness writes a ping control frame and completes the token when a
// pong arrives. Returns nil once MarkClosed was called.
func (c *Conn) ProbeLiveness(onSuccess func(), onFailure func(err error)) types.PingToken {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.seq++
	seq := c.seq
	token := probe.NewToken(onSuccess, onFailure)
	c.pending[seq] = &pendingPing{
		token: token,
		timer: time.AfterFunc(c.pongTimeout, func() { c.expire(seq) }),
	}
	c.mu.Unlock()

	payload := []byte(strconv.FormatUint(seq, 10))
	if err := c.ws.WriteControl(websocket.PingMessage, payload, time.Now().Add(c.writeTimeout)); err != nil {
		if p := c.take(seq); p != nil {
			p.token.Fail(classifyWriteError(err))
		}
	}

	return token
}

// MarkClosed fails every outstanding probe and makes later probes return nil.
// Call it when the read loop exits. A nil err reports ErrConnectionClosed.
func (c *Conn) MarkClosed(err error) {
	if err == nil {
		err = types.ErrConnectionClosed
	} else {
		err = fmt.Errorf("%w: %w", types.ErrConnectionClosed, err)
	}

	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]*pendingPing)
	c.mu.Unlock()

	for _, p := range pending {
		p.timer.Stop()
		p.token.Fail(err)
	}
}

// Outstanding returns the number of probes waiting for a pong.
func (c *Conn) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

func (c *Conn) handlePong() {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[uint64]*pendingPing)
	c.mu.Unlock()

	for _, p := range pending {
		p.timer.Stop()
		p.token.Succeed()
	}
}

func (c *Conn) expire(seq uint64) {
	if p := c.take(seq); p != nil {
		p.token.Fail(fmt.Errorf("%w: no pong within %v", types.ErrProbeTimeout, c.pongTimeout))
	}
}

func (c *Conn) take(seq uint64) *pendingPing {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[seq]
	if !ok {
		return nil
	}
	delete(c.pending, seq)
	p.timer.Stop()

	return p
}

func classifyWriteError(err error) error {
	if err == websocket.ErrCloseSent || types.IsConnectionClosedError(err) {
		return fmt.Errorf("%w: %w", types.ErrConnectionClosed, err)
	}

	return fmt.Errorf("websocket ping: %w", err)
}
