package sleepguard

import (
	"sync/atomic"
	"time"

	"github.com/arloliu/keepalive/types"
)

// Guard is a held sleep guard with single-winner release.
type Guard struct {
	tag        string
	acquiredAt time.Time
	release    func() error

	held       atomic.Bool
	releasedAt atomic.Int64
}

// Compile-time assertion that Guard implements SleepGuard.
var _ types.SleepGuard = (*Guard)(nil)

// NewGuard returns a held guard. release is invoked exactly once, by the
// first Release call, and may be nil when there is no platform resource.
func NewGuard(tag string, release func() error) *Guard {
	g := &Guard{
		tag:        tag,
		acquiredAt: time.Now(),
		release:    release,
	}
	g.held.Store(true)

	return g
}

// Tag returns the diagnostic tag.
func (g *Guard) Tag() string {
	return g.tag
}

// IsHeld reports whether Release has not been called yet.
func (g *Guard) IsHeld() bool {
	return g.held.Load()
}

// Release releases the guard. Only the first call has an effect; later and
// concurrent calls return nil without touching the platform resource.
func (g *Guard) Release() error {
	if !g.held.CompareAndSwap(true, false) {
		return nil
	}
	g.releasedAt.Store(time.Now().UnixNano())

	if g.release == nil {
		return nil
	}

	return g.release()
}

// AcquiredAt returns when the guard was acquired.
func (g *Guard) AcquiredAt() time.Time {
	return g.acquiredAt
}

// HeldFor returns how long the guard has been held, or was held if released.
func (g *Guard) HeldFor() time.Duration {
	if ns := g.releasedAt.Load(); ns != 0 {
		return time.Unix(0, ns).Sub(g.acquiredAt)
	}

	return time.Since(g.acquiredAt)
}
