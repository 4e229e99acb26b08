package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/arloliu/keepalive/types"
)

// DefaultAcquireTimeout bounds a guard acquisition when AcquireTimeout is unset.
const DefaultAcquireTimeout = 2 * time.Second

// Action performs one heartbeat for a single connection.
//
// Fields are set once by the owner and read concurrently by Run and the probe
// continuations. Logger, Metrics, and Hooks callbacks must be non-nil.
type Action struct {
	Conn           types.Connection
	Tag            string
	Guards         types.GuardProvider
	Logger         types.Logger
	Metrics        types.MetricsCollector
	Hooks          types.Hooks
	AcquireTimeout time.Duration
	MaxGuardHold   time.Duration
}

// Run executes one heartbeat and returns the probe token, or nil when the
// connection reported that no probe was needed.
//
// Run never blocks on the probe round-trip.
func (a *Action) Run() types.PingToken {
	connID := a.Conn.ID()
	a.Metrics.RecordHeartbeatFired(connID)

	r := &run{action: a, connID: connID}
	r.guard = a.acquire(connID)
	r.acquiredAt = time.Now()

	if r.guard != nil && a.MaxGuardHold > 0 {
		r.safety.Store(time.AfterFunc(a.MaxGuardHold, r.expire))
	}

	defer func() {
		if v := recover(); v != nil {
			r.release()
			panic(v)
		}
	}()

	token := a.Conn.ProbeLiveness(r.onSuccess, r.onFailure)
	if token == nil {
		a.Metrics.RecordProbeResult(connID, types.ProbeResultSkipped)
		if r.guard != nil && r.guard.IsHeld() {
			r.release()
		}
		a.Logger.Debug("probe not needed", "conn", connID)

		return nil
	}

	a.Logger.Debug("probe issued", "conn", connID)

	return token
}

func (a *Action) acquire(connID string) types.SleepGuard {
	timeout := a.AcquireTimeout
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	guard, err := a.Guards.Acquire(ctx, a.Tag)
	if err != nil {
		a.Metrics.RecordGuardAcquireFailed(connID)
		a.Logger.Warn("failed to acquire sleep guard, probing without it",
			"conn", connID,
			"tag", a.Tag,
			"error", err,
		)
		a.reportError(err)

		return nil
	}

	return guard
}

func (a *Action) reportError(err error) {
	go func() {
		if hookErr := a.Hooks.OnError(context.Background(), err); hookErr != nil {
			a.Logger.Error("error hook failed", "error", hookErr)
		}
	}()
}

// run holds the per-firing state shared by Run and the probe continuations.
type run struct {
	action     *Action
	connID     string
	guard      types.SleepGuard
	acquiredAt time.Time
	safety     atomic.Pointer[time.Timer]
	released   atomic.Bool
}

func (r *run) onSuccess() {
	r.action.Metrics.RecordProbeResult(r.connID, types.ProbeResultSuccess)
	r.release()
}

func (r *run) onFailure(err error) {
	a := r.action
	a.Metrics.RecordProbeResult(r.connID, types.ProbeResultFailure)
	r.release()

	a.Logger.Warn("liveness probe failed", "conn", r.connID, "error", err)

	go func() {
		if hookErr := a.Hooks.OnProbeFailed(context.Background(), r.connID, err); hookErr != nil {
			a.Logger.Error("probe failed hook error", "conn", r.connID, "error", hookErr)
		}
	}()
}

func (r *run) expire() {
	if r.guard == nil || !r.guard.IsHeld() {
		return
	}

	r.action.Logger.Warn("sleep guard held past limit, releasing",
		"conn", r.connID,
		"tag", r.action.Tag,
		"limit", r.action.MaxGuardHold,
	)
	r.release()
}

// release releases the guard at most once per firing. The guard itself is
// also single-winner; the local flag keeps metrics to one sample.
func (r *run) release() {
	if r.guard == nil || !r.released.CompareAndSwap(false, true) {
		return
	}
	if t := r.safety.Load(); t != nil {
		t.Stop()
	}

	if err := r.guard.Release(); err != nil {
		r.action.Logger.Warn("failed to release sleep guard",
			"conn", r.connID,
			"tag", r.guard.Tag(),
			"error", err,
		)
		r.action.reportError(err)
	}

	r.action.Metrics.RecordGuardHeld(r.connID, time.Since(r.acquiredAt).Seconds())
}
