package types

import "context"

// Hooks defines callbacks for scheduler lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// so they never block the scheduler worker or the probe completion path.
//
// IMPORTANT: Hook execution behavior:
//   - Hooks run concurrently and may not complete before Stop() returns
//   - Hook errors are logged but don't fail scheduler operations
//
// Example:
//
//	hooks := &keepalive.Hooks{
//	    OnProbeFailed: func(ctx context.Context, connID string, err error) error {
//	        reconnects <- connID
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnStateChanged is called when the scheduler state transitions.
	OnStateChanged func(ctx context.Context, connID string, from, to State) error

	// OnProbeFailed is called when a liveness probe reports failure.
	// Reconnect policy belongs to the receiver; the scheduler never retries.
	OnProbeFailed func(ctx context.Context, connID string, err error) error

	// OnError is called when a recoverable error occurs.
	OnError func(ctx context.Context, err error) error
}
