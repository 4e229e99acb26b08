package testing

import (
	"context"
	"sync"

	"github.com/arloliu/keepalive/sleepguard"
	"github.com/arloliu/keepalive/types"
)

// GuardRecorder is a types.GuardProvider that records every acquisition and
// every effective release, per tag.
type GuardRecorder struct {
	mu       sync.Mutex
	acquired map[string]int
	released map[string]int
	guards   []types.SleepGuard
	failErr  error
}

var _ types.GuardProvider = (*GuardRecorder)(nil)

// NewGuardRecorder creates an empty recorder.
func NewGuardRecorder() *GuardRecorder {
	return &GuardRecorder{
		acquired: make(map[string]int),
		released: make(map[string]int),
	}
}

// SetAcquireError makes subsequent acquisitions fail with err. Pass nil to
// restore normal behavior.
func (r *GuardRecorder) SetAcquireError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failErr = err
}

// Acquire returns a fresh held guard and records the acquisition.
func (r *GuardRecorder) Acquire(_ context.Context, tag string) (types.SleepGuard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failErr != nil {
		return nil, r.failErr
	}

	r.acquired[tag]++
	guard := sleepguard.NewGuard(tag, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.released[tag]++

		return nil
	})
	r.guards = append(r.guards, guard)

	return guard, nil
}

// Acquired returns how many guards were acquired for tag.
func (r *GuardRecorder) Acquired(tag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.acquired[tag]
}

// Released returns how many guards were effectively released for tag.
func (r *GuardRecorder) Released(tag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.released[tag]
}

// Held returns how many guards are currently held across all tags.
func (r *GuardRecorder) Held() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, g := range r.guards {
		if g.IsHeld() {
			n++
		}
	}

	return n
}

// Guards returns every guard handed out, in acquisition order.
func (r *GuardRecorder) Guards() []types.SleepGuard {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]types.SleepGuard(nil), r.guards...)
}
