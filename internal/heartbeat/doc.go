// Package heartbeat implements the unit of work executed each time a
// keep-alive timer fires.
//
// # Action Lifecycle
//
// One Run call performs a single heartbeat:
//
//  1. Acquire a fresh sleep guard tagged with the connection's guard tag
//  2. Ask the connection for a liveness probe, passing continuations that
//     each release the guard
//  3. If the connection answers with no token (no probe needed), release the
//     guard immediately if it is still held
//
// Run returns as soon as the probe is issued. The guard stays held across the
// network round-trip and is released by whichever completion arrives first.
//
// # Failure Handling
//
// Probe failures are never retried here. They are counted, logged, and
// reported through Hooks.OnProbeFailed; reconnect policy belongs to the
// receiver of that hook.
//
// A guard that cannot be acquired does not stop the probe. With no resource
// held there is nothing to release later, and skipping the probe would let the
// connection go silent.
//
// # Guard Hold Limit
//
// MaxGuardHold bounds how long a guard may stay held when a probe never
// completes. After the limit the guard is released and the probe outcome, if
// it ever arrives, only records metrics.
package heartbeat
