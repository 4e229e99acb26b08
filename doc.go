// Package keepalive provides a keep-alive heartbeat scheduler for long-lived
// protocol connections.
//
// A Scheduler periodically asks its connection for a liveness probe, holding
// a host sleep guard for the whole network round-trip so the device cannot
// suspend between sending the probe and receiving its answer.
//
// # Quick Start
//
// Basic usage with default settings:
//
//	import "github.com/arloliu/keepalive"
//
//	cfg := keepalive.DefaultConfig()
//	s, err := keepalive.NewScheduler(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	conn := natsconn.New(nc, natsconn.Config{KeepAliveInterval: 30 * time.Second})
//	if err := s.Init(conn); err != nil {
//	    log.Fatal(err)
//	}
//	_ = s.Start()
//	defer s.Stop()
//
// # Key Features
//
//   - Single pending timer: Start and Schedule always replace the previous timer
//   - Serialized firings: each Scheduler owns one worker goroutine
//   - Balanced sleep guards: every acquired guard is released exactly once,
//     however the probe completion races with the firing
//   - Non-blocking Stop: never waits for an in-flight probe
//
// # Architecture
//
// Schedulers progress through a state machine:
//
//	UNINITIALIZED → STOPPED → ARMED → FIRING → ARMED | IDLE
//
// Stop returns any started state to STOPPED. In IDLE the scheduler is started
// but has no pending timer and waits for the connection layer to call
// Schedule, usually after traffic or a completed probe. Set
// Config.RearmOnFire to re-arm at the full interval after every firing
// instead.
//
// # Connection Adapters
//
// Connections implement Connection. The library ships adapters for
// nats.go (package natsconn) and gorilla/websocket (package wsconn). Custom
// adapters can build their PingToken with package probe.
//
// # Many Connections
//
// A Group keeps one Scheduler per connection ID and can stagger first firings
// across a window:
//
//	cfg.StaggerWindow = 5 * time.Second
//	group, _ := keepalive.NewGroup(&cfg)
//	_, _ = group.Add(conn)
//	_ = group.Start(conn.ID())
//
// # Observability
//
// Pass WithLogger, WithMetrics, and WithHooks to NewScheduler or NewGroup.
// NewPrometheusMetrics and NewSlogLogger adapt Prometheus and log/slog.
// Hooks run asynchronously and their errors are only logged.
package keepalive
