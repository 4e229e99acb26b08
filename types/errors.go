package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the keepalive library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Scheduler errors - Public API errors returned by Scheduler and Group.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionRequired is returned when Init receives a nil connection.
	ErrConnectionRequired = errors.New("connection is required")

	// ErrInvalidConnection is returned when the connection has no usable identifier.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrInvalidKeepAlive is returned when the connection reports a non-positive keep-alive interval.
	ErrInvalidKeepAlive = errors.New("keep-alive interval must be positive")

	// ErrAlreadyInitialized is returned when Init is called more than once.
	ErrAlreadyInitialized = errors.New("scheduler already initialized")

	// ErrNotInitialized is returned when Start or Schedule is called before Init.
	ErrNotInitialized = errors.New("scheduler not initialized")

	// ErrNotStarted is returned when Schedule is called on a stopped scheduler.
	ErrNotStarted = errors.New("scheduler not started")

	// ErrSchedulerExists is returned when a Group already tracks the connection ID.
	ErrSchedulerExists = errors.New("scheduler already exists for connection")

	// ErrSchedulerNotFound is returned when a Group does not track the connection ID.
	ErrSchedulerNotFound = errors.New("scheduler not found for connection")
)

// Probe and guard errors - Reported by connection adapters and guard providers.
var (
	// ErrGuardUnavailable is returned when the host cannot provide a sleep guard.
	ErrGuardUnavailable = errors.New("sleep guard unavailable")

	// ErrProbeTimeout is reported when a liveness probe does not complete in time.
	ErrProbeTimeout = errors.New("liveness probe timed out")

	// ErrConnectionClosed is reported when the probed connection is already closed.
	ErrConnectionClosed = errors.New("connection closed")
)

// IsConnectionClosedError checks if an error indicates the probed connection is closed.
//
// Handles the sentinel as well as transport errors that only carry a message:
//   - "nats: connection closed"
//   - "websocket: close sent"
//   - "use of closed network connection"
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error indicates a closed connection, false otherwise
func IsConnectionClosedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionClosed) {
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "close sent") ||
		strings.Contains(msg, "use of closed network connection")
}
