// Package sleepguard provides host sleep-prevention guards.
//
// A guard is held for the duration of one heartbeat round-trip so the host
// does not suspend between sending a liveness probe and receiving its answer.
//
// # Providers
//
//   - NewDefaultProvider: the platform provider. On Linux it takes a
//     systemd-logind "sleep" inhibitor lock over D-Bus; on macOS it runs
//     `caffeinate -i -w <pid>`; elsewhere it falls back to NewNopProvider.
//   - NewNopProvider: tracks held/released state only, for hosts without
//     suspend semantics and for tests.
//
// # Release semantics
//
// Every guard returned by this package releases through Guard, whose Release
// is single-winner: the probe completion callback and the heartbeat action
// may both try to release the same guard concurrently, and exactly one of
// them releases the platform resource.
package sleepguard
