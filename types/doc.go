// Package types provides core type definitions and interfaces for the keepalive library.
//
// This package contains shared types that are used across multiple packages in the
// keepalive library. By keeping these types in a separate package, we avoid import cycles
// between the main keepalive package and its internal implementations.
//
// Key types:
//   - State: Scheduler lifecycle state
//   - Connection: The connection collaborator whose liveness is probed
//   - PingToken: An in-flight liveness probe
//   - SleepGuard, GuardProvider: Host sleep-prevention resource
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
