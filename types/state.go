package types

// State represents the scheduler lifecycle state.
//
// States follow a defined progression during normal operation:
//
//	StateUninitialized → StateStopped → StateArmed → StateFiring → StateArmed|StateIdle
//
// Stop returns any started state to StateStopped, which is left again only by Start.
type State int

const (
	// StateUninitialized is the state before Init binds a connection.
	StateUninitialized State = iota

	// StateStopped indicates a bound connection with no timer pending.
	StateStopped

	// StateArmed indicates a timer is pending and will fire at its deadline.
	StateArmed

	// StateFiring indicates the worker is executing the heartbeat action.
	StateFiring

	// StateIdle indicates the scheduler is started but no timer is pending.
	// The connection layer is expected to re-arm via Schedule.
	StateIdle
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateStopped:
		return "Stopped"
	case StateArmed:
		return "Armed"
	case StateFiring:
		return "Firing"
	case StateIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// IsStarted reports whether the state belongs to a started scheduler.
func (s State) IsStarted() bool {
	return s == StateArmed || s == StateFiring || s == StateIdle
}
