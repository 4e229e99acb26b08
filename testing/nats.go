package testing

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// StartEmbeddedNATS starts an embedded NATS server for testing.
//
// The server runs in-process on a random available port, so parallel tests
// never conflict. Server and client are shut down automatically via
// t.Cleanup().
//
// Parameters:
//   - t: Testing context for logging and cleanup
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected NATS client (closed automatically on test completion)
//
// Example:
//
//	func TestProbe(t *testing.T) {
//	    _, nc := katest.StartEmbeddedNATS(t)
//	    conn := natsconn.New(nc, natsconn.Config{KeepAliveInterval: time.Second})
//	}
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	ns := StartEmbeddedNATSServer(t)

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(3),
	)
	if err != nil {
		ns.Shutdown()
		t.Fatalf("Failed to connect to embedded NATS server: %v", err)
	}

	// Cleanups run in reverse order: client first, then server.
	t.Cleanup(nc.Close)

	return ns, nc
}

// StartEmbeddedNATSServer starts an embedded NATS server without a client.
//
// Use this when the test needs to control connection options itself, for
// example to observe disconnect behavior after ns.Shutdown().
func StartEmbeddedNATSServer(t *testing.T) *server.Server {
	t.Helper()

	opts := &server.Options{
		Host:  "127.0.0.1",
		Port:  -1,    // Use random available port
		Debug: false, // Disable debug output
		Trace: false, // Disable trace output
		NoLog: true,  // Suppress all server logs in tests
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("Embedded NATS server not ready within timeout")
	}

	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns
}
