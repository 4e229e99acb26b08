package keepalive

import "github.com/arloliu/keepalive/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which lets internal packages and connection adapters depend on
// `types` without importing the root `keepalive` package.
type (
	State      = types.State
	Connection = types.Connection
	PingToken  = types.PingToken
)

// Re-export interfaces from the internal types package for convenience.
type (
	SleepGuard       = types.SleepGuard
	GuardProvider    = types.GuardProvider
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export State constants from the internal types package.
const (
	StateUninitialized = types.StateUninitialized
	StateStopped       = types.StateStopped
	StateArmed         = types.StateArmed
	StateFiring        = types.StateFiring
	StateIdle          = types.StateIdle
)
