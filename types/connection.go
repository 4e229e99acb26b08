package types

import "time"

// Connection is the persistent protocol connection whose liveness is probed.
//
// The scheduler holds a non-owning reference; the caller manages the
// connection's lifetime. Implementations must be safe for concurrent use
// because ProbeLiveness is called from the scheduler worker while the
// connection's own I/O goroutines keep running.
type Connection interface {
	// ID returns a stable connection identifier, used to tag sleep guards.
	ID() string

	// KeepAliveInterval returns the maximum allowed silence before a probe
	// must be sent. Must be positive.
	KeepAliveInterval() time.Duration

	// ProbeLiveness issues a liveness probe without blocking on its round-trip.
	//
	// Exactly one of onSuccess or onFailure is invoked, at most once, on an
	// arbitrary goroutine once the probe completes. Either may run before
	// ProbeLiveness returns.
	//
	// Returns nil when no probe is needed right now (for example because
	// traffic already proved liveness). In that case neither callback is ever
	// invoked.
	ProbeLiveness(onSuccess func(), onFailure func(err error)) PingToken
}

// PingToken represents an in-flight liveness probe.
//
// A token carries exactly one eventual outcome: success (Err returns nil) or
// failure (Err returns the cause).
type PingToken interface {
	// Done is closed once the probe outcome is known.
	Done() <-chan struct{}

	// Err returns the failure cause after Done closes, or nil on success.
	Err() error
}
