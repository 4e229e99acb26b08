package testing

import (
	"errors"
	"sync"
	"time"

	"github.com/arloliu/keepalive/probe"
	"github.com/arloliu/keepalive/types"
)

// ProbeOutcome selects how FakeConnection answers a liveness probe.
type ProbeOutcome int

const (
	// OutcomeSucceed completes the probe successfully.
	OutcomeSucceed ProbeOutcome = iota
	// OutcomeFail fails the probe with the configured error.
	OutcomeFail
	// OutcomePending leaves the probe in flight until SucceedPending or FailPending.
	OutcomePending
	// OutcomeNoToken reports that no probe is needed and returns a nil token.
	OutcomeNoToken
)

// ErrFakeProbe is the default failure used by OutcomeFail.
var ErrFakeProbe = errors.New("fake probe failure")

// FakeConnection is a scriptable types.Connection.
//
// By default every probe succeeds synchronously, before ProbeLiveness
// returns. SetDelay moves completion onto a background goroutine.
type FakeConnection struct {
	id       string
	interval time.Duration

	mu        sync.Mutex
	outcome   ProbeOutcome
	delay     time.Duration
	failErr   error
	onProbe   func()
	probeLog  []time.Time
	pending   []*probe.Token
	probeCond chan struct{}
}

var _ types.Connection = (*FakeConnection)(nil)

// NewFakeConnection creates a fake connection whose probes succeed.
func NewFakeConnection(id string, interval time.Duration) *FakeConnection {
	return &FakeConnection{
		id:        id,
		interval:  interval,
		failErr:   ErrFakeProbe,
		probeCond: make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *FakeConnection) ID() string {
	return c.id
}

// KeepAliveInterval returns the configured interval.
func (c *FakeConnection) KeepAliveInterval() time.Duration {
	return c.interval
}

// SetOutcome sets the outcome of subsequent probes.
func (c *FakeConnection) SetOutcome(outcome ProbeOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcome = outcome
}

// SetDelay makes subsequent probes complete asynchronously after d.
func (c *FakeConnection) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.delay = d
}

// SetFailError sets the error used by OutcomeFail.
func (c *FakeConnection) SetFailError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failErr = err
}

// SetProbeHook installs fn to run synchronously at the start of every
// ProbeLiveness call, for example to block the firing or to call back into
// the scheduler.
func (c *FakeConnection) SetProbeHook(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onProbe = fn
}

// ProbeLiveness records the call and answers according to the script.
func (c *FakeConnection) ProbeLiveness(onSuccess func(), onFailure func(err error)) types.PingToken {
	c.mu.Lock()
	hook := c.onProbe
	c.mu.Unlock()

	if hook != nil {
		hook()
	}

	c.mu.Lock()
	outcome, delay, failErr := c.outcome, c.delay, c.failErr
	c.probeLog = append(c.probeLog, time.Now())
	close(c.probeCond)
	c.probeCond = make(chan struct{})

	if outcome == OutcomeNoToken {
		c.mu.Unlock()
		return nil
	}

	token := probe.NewToken(onSuccess, onFailure)
	if outcome == OutcomePending {
		c.pending = append(c.pending, token)
		c.mu.Unlock()

		return token
	}
	c.mu.Unlock()

	complete := func() {
		if outcome == OutcomeFail {
			token.Fail(failErr)
			return
		}
		token.Succeed()
	}

	if delay > 0 {
		time.AfterFunc(delay, complete)
	} else {
		complete()
	}

	return token
}

// Probes returns how many times ProbeLiveness was called.
func (c *FakeConnection) Probes() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.probeLog)
}

// ProbeTimes returns the time of every ProbeLiveness call.
func (c *FakeConnection) ProbeTimes() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Time(nil), c.probeLog...)
}

// WaitForProbes waits until at least n probes were issued.
//
// Returns:
//   - bool: false if timeout elapsed first
func (c *FakeConnection) WaitForProbes(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		count, ch := len(c.probeLog), c.probeCond
		c.mu.Unlock()

		if count >= n {
			return true
		}

		select {
		case <-ch:
		case <-deadline.C:
			return false
		}
	}
}

// SucceedPending completes every pending probe successfully.
//
// Returns:
//   - int: Number of probes completed
func (c *FakeConnection) SucceedPending() int {
	n := 0
	for _, token := range c.takePending() {
		if token.Succeed() {
			n++
		}
	}

	return n
}

// FailPending fails every pending probe with err.
//
// Returns:
//   - int: Number of probes completed
func (c *FakeConnection) FailPending(err error) int {
	n := 0
	for _, token := range c.takePending() {
		if token.Fail(err) {
			n++
		}
	}

	return n
}

func (c *FakeConnection) takePending() []*probe.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.pending
	c.pending = nil

	return pending
}
