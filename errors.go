package keepalive

import "github.com/arloliu/keepalive/types"

// Sentinel errors returned by the Scheduler and Group.
//
// These are re-exported from the types package so that callers can match
// errors produced by subpackages (sleepguard, natsconn, wsconn) with the same
// values.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrConnectionRequired is returned when Init receives a nil connection.
	ErrConnectionRequired = types.ErrConnectionRequired

	// ErrInvalidConnection is returned when a connection has an empty ID.
	ErrInvalidConnection = types.ErrInvalidConnection

	// ErrInvalidKeepAlive is returned when a connection's keep-alive interval is not positive.
	ErrInvalidKeepAlive = types.ErrInvalidKeepAlive

	// ErrAlreadyInitialized is returned when Init is called twice.
	ErrAlreadyInitialized = types.ErrAlreadyInitialized

	// ErrNotInitialized is returned when Start is called before Init.
	ErrNotInitialized = types.ErrNotInitialized

	// ErrNotStarted is returned when Schedule is called while the scheduler is stopped.
	ErrNotStarted = types.ErrNotStarted

	// ErrSchedulerExists is returned when a Group already tracks a connection ID.
	ErrSchedulerExists = types.ErrSchedulerExists

	// ErrSchedulerNotFound is returned when a Group does not track a connection ID.
	ErrSchedulerNotFound = types.ErrSchedulerNotFound

	// ErrGuardUnavailable is returned when the platform cannot provide a sleep guard.
	ErrGuardUnavailable = types.ErrGuardUnavailable

	// ErrProbeTimeout is reported when a liveness probe gets no answer in time.
	ErrProbeTimeout = types.ErrProbeTimeout

	// ErrConnectionClosed is reported when a probe targets a closed connection.
	ErrConnectionClosed = types.ErrConnectionClosed
)
