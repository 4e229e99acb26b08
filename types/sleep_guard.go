package types

import "context"

// SleepGuard is an acquired handle that keeps the host from suspending
// while it is held.
//
// Release must be safe to call more than once and from multiple goroutines.
// Only the first call releases the underlying resource; later calls are
// no-ops that return nil.
type SleepGuard interface {
	// Tag returns the diagnostic tag the guard was acquired with.
	Tag() string

	// IsHeld reports whether the guard has not been released yet.
	IsHeld() bool

	// Release releases the guard. It returns a non-nil error only when the
	// winning call failed to release the platform resource.
	Release() error
}

// GuardProvider acquires sleep guards from the host platform.
type GuardProvider interface {
	// Acquire obtains a fresh, held guard tagged with tag.
	Acquire(ctx context.Context, tag string) (SleepGuard, error)
}
