// Package testing provides test utilities for the keepalive library.
//
// This package offers helpers for setting up test environments: an embedded
// NATS server for connection adapter tests, a scriptable fake connection, and
// a sleep guard provider that records every acquisition and release. It
// follows Go's convention of providing testing utilities in a dedicated
// package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single in-process NATS server plus a client
//   - FakeConnection: types.Connection with scripted probe outcomes
//   - GuardRecorder: types.GuardProvider that counts effective releases
//   - NewTestLogger: types.Logger writing through testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    katest "github.com/arloliu/keepalive/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    conn := katest.NewFakeConnection("c1", time.Second)
//	    guards := katest.NewGuardRecorder()
//	    // Wire conn and guards into a Scheduler
//	}
package testing
