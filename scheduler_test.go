package keepalive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/keepalive/internal/logging"
	"github.com/arloliu/keepalive/sleepguard"
	katest "github.com/arloliu/keepalive/testing"
)

const testTag = "keepalive.ping.c1"

func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *katest.GuardRecorder) {
	t.Helper()

	guards := katest.NewGuardRecorder()
	cfg := TestConfig()
	all := append([]Option{
		WithLogger(logging.NewNop()),
		WithGuardProvider(guards),
	}, opts...)

	s, err := NewScheduler(&cfg, all...)
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	return s, guards
}

func TestNewScheduler(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.ErrorIs(t, err, ErrInvalidConfig)
		require.Nil(t, s)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxGuardHold = -time.Second

		_, err := NewScheduler(&cfg)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("applies defaults to a copy", func(t *testing.T) {
		cfg := Config{}
		s, err := NewScheduler(&cfg, WithGuardProvider(sleepguard.NewNopProvider()))
		require.NoError(t, err)

		require.Equal(t, "keepalive.ping.", s.cfg.GuardTagPrefix)
		require.Empty(t, cfg.GuardTagPrefix, "caller config is not modified")
		require.Equal(t, StateUninitialized, s.State())
	})
}

func TestScheduler_Init(t *testing.T) {
	t.Run("binds connection without arming", func(t *testing.T) {
		s, _ := newTestScheduler(t)

		require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Second)))
		require.Equal(t, StateStopped, s.State())
		require.Equal(t, "c1", s.ConnectionID())
		require.Equal(t, testTag, s.action.Tag)
		require.Equal(t, 0, s.pendingTimers())

		_, ok := s.NextDeadline()
		require.False(t, ok)
	})

	t.Run("rejects nil connection", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.ErrorIs(t, s.Init(nil), ErrConnectionRequired)
		require.Equal(t, StateUninitialized, s.State())
	})

	t.Run("rejects empty ID", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.ErrorIs(t, s.Init(katest.NewFakeConnection("", time.Second)), ErrInvalidConnection)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.ErrorIs(t, s.Init(katest.NewFakeConnection("c1", 0)), ErrInvalidKeepAlive)
		require.ErrorIs(t, s.Init(katest.NewFakeConnection("c1", -time.Second)), ErrInvalidKeepAlive)
	})

	t.Run("second init fails", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Second)))
		require.ErrorIs(t, s.Init(katest.NewFakeConnection("c2", time.Second)), ErrAlreadyInitialized)
		require.Equal(t, "c1", s.ConnectionID())
	})
}

func TestScheduler_Start(t *testing.T) {
	t.Run("before init", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.ErrorIs(t, s.Start(), ErrNotInitialized)
		require.False(t, s.IsStarted())
	})

	t.Run("arms one interval from now", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Hour)))

		before := time.Now()
		require.NoError(t, s.Start())

		require.True(t, s.IsStarted())
		require.Equal(t, StateArmed, s.State())
		require.Equal(t, 1, s.pendingTimers())

		deadline, ok := s.NextDeadline()
		require.True(t, ok)
		require.WithinDuration(t, before.Add(time.Hour), deadline, time.Second)
	})

	t.Run("restart re-arms", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Hour)))
		require.NoError(t, s.Start())
		first, _ := s.NextDeadline()

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, s.Start())
		second, ok := s.NextDeadline()

		require.True(t, ok)
		require.True(t, second.After(first))
		require.Equal(t, 1, s.pendingTimers())
	})
}

func TestScheduler_Schedule(t *testing.T) {
	t.Run("before init", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.ErrorIs(t, s.Schedule(time.Second), ErrNotInitialized)
	})

	t.Run("while stopped arms nothing", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Hour)))

		require.ErrorIs(t, s.Schedule(time.Millisecond), ErrNotStarted)
		require.Equal(t, 0, s.pendingTimers())
		require.Nil(t, s.worker, "worker is created only when a timer is armed")
	})

	t.Run("negative delay fires immediately", func(t *testing.T) {
		conn := katest.NewFakeConnection("c1", time.Hour)
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(conn))
		require.NoError(t, s.Start())

		require.NoError(t, s.Schedule(-time.Second))
		require.True(t, conn.WaitForProbes(1, time.Second))
	})
}

// At most one timer is pending at any instant, however Schedule is raced.
func TestScheduler_SinglePendingTimer(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Hour)))
	require.NoError(t, s.Start())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			for j := range 50 {
				if (i+j)%7 == 0 {
					_ = s.Start()
				} else {
					_ = s.Schedule(time.Duration(j+1) * time.Minute)
				}
				assert.LessOrEqual(t, s.pendingTimers(), 1)
			}
		})
	}
	wg.Wait()

	require.Equal(t, 1, s.pendingTimers())
	require.Equal(t, StateArmed, s.State())
}

// A firing never begins before the previous action body completed.
func TestScheduler_SerializedFirings(t *testing.T) {
	conn := katest.NewFakeConnection("c1", time.Hour)
	s, guards := newTestScheduler(t)
	require.NoError(t, s.Init(conn))
	require.NoError(t, s.Start())

	var inFlight, maxInFlight atomic.Int32
	conn.SetProbeHook(func() {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
	})

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			for range 25 {
				_ = s.Schedule(0)
				time.Sleep(time.Millisecond)
			}
		})
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, int32(1), maxInFlight.Load())
	require.Positive(t, conn.Probes())
	require.Equal(t, guards.Acquired(testTag), guards.Released(testTag))
}

func TestScheduler_RestartWaitsForRunningAction(t *testing.T) {
	conn := katest.NewFakeConnection("c1", 5*time.Millisecond)
	s, guards := newTestScheduler(t)
	require.NoError(t, s.Init(conn))

	entered := make(chan struct{})
	var once sync.Once
	var inFlight, maxInFlight atomic.Int32
	conn.SetProbeHook(func() {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		once.Do(func() { close(entered) })
		time.Sleep(100 * time.Millisecond)
		inFlight.Add(-1)
	})

	require.NoError(t, s.Start())
	<-entered

	s.Stop()
	require.NoError(t, s.Start())

	require.True(t, conn.WaitForProbes(2, 2*time.Second))
	require.Equal(t, int32(1), maxInFlight.Load())

	s.Stop()
	require.Eventually(t, func() bool {
		return guards.Held() == 0
	}, time.Second, 5*time.Millisecond)
}

// Every acquired guard is released exactly once, whatever the outcome.
func TestScheduler_GuardBalance(t *testing.T) {
	for _, tc := range []struct {
		name    string
		outcome katest.ProbeOutcome
		delay   time.Duration
	}{
		{name: "sync success", outcome: katest.OutcomeSucceed},
		{name: "sync failure", outcome: katest.OutcomeFail},
		{name: "async success", outcome: katest.OutcomeSucceed, delay: 2 * time.Millisecond},
		{name: "async failure", outcome: katest.OutcomeFail, delay: 2 * time.Millisecond},
		{name: "no token", outcome: katest.OutcomeNoToken},
	} {
		t.Run(tc.name, func(t *testing.T) {
			conn := katest.NewFakeConnection("c1", 10*time.Millisecond)
			conn.SetOutcome(tc.outcome)
			conn.SetDelay(tc.delay)

			cfg := TestConfig()
			cfg.RearmOnFire = true
			guards := katest.NewGuardRecorder()
			s, err := NewScheduler(&cfg, WithGuardProvider(guards))
			require.NoError(t, err)
			require.NoError(t, s.Init(conn))
			require.NoError(t, s.Start())

			require.True(t, conn.WaitForProbes(5, 2*time.Second))
			s.Stop()

			require.Eventually(t, func() bool {
				return guards.Held() == 0
			}, time.Second, 5*time.Millisecond)
			require.Equal(t, guards.Acquired(testTag), guards.Released(testTag))
			require.GreaterOrEqual(t, guards.Acquired(testTag), 5)
		})
	}
}

// Stop is idempotent and safe before Start.
func TestScheduler_IdempotentStop(t *testing.T) {
	t.Run("before init", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		s.Stop()
		s.Stop()
		require.Equal(t, StateUninitialized, s.State())
	})

	t.Run("before start", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Hour)))
		s.Stop()
		require.Equal(t, StateStopped, s.State())
	})

	t.Run("twice after start", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(katest.NewFakeConnection("c1", time.Hour)))
		require.NoError(t, s.Start())

		s.Stop()
		s.Stop()

		require.Equal(t, StateStopped, s.State())
		require.False(t, s.IsStarted())
		require.Equal(t, 0, s.pendingTimers())
		require.Nil(t, s.worker)
	})

	t.Run("start after stop", func(t *testing.T) {
		conn := katest.NewFakeConnection("c1", 20*time.Millisecond)
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(conn))
		require.NoError(t, s.Start())
		s.Stop()

		require.NoError(t, s.Start())
		require.Equal(t, StateArmed, s.State())
		require.True(t, conn.WaitForProbes(1, time.Second))
	})
}

// A newer Schedule call replaces the pending timer.
func TestScheduler_RescheduleReplaces(t *testing.T) {
	t.Run("shorter replaces longer", func(t *testing.T) {
		conn := katest.NewFakeConnection("c1", time.Hour)
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(conn))
		require.NoError(t, s.Start())

		require.NoError(t, s.Schedule(150*time.Millisecond))
		require.NoError(t, s.Schedule(30*time.Millisecond))

		require.True(t, conn.WaitForProbes(1, time.Second))
		time.Sleep(250 * time.Millisecond)
		require.Equal(t, 1, conn.Probes())
	})

	t.Run("longer replaces shorter", func(t *testing.T) {
		conn := katest.NewFakeConnection("c1", time.Hour)
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(conn))
		require.NoError(t, s.Start())

		start := time.Now()
		require.NoError(t, s.Schedule(30*time.Millisecond))
		require.NoError(t, s.Schedule(150*time.Millisecond))

		require.True(t, conn.WaitForProbes(1, time.Second))
		require.GreaterOrEqual(t, conn.ProbeTimes()[0].Sub(start), 150*time.Millisecond)

		time.Sleep(100 * time.Millisecond)
		require.Equal(t, 1, conn.Probes())
	})
}

// Interval 100ms, probe answered 5ms after firing: the guard covers exactly
// the round-trip and is released once.
func TestScheduler_HeartbeatRoundTrip(t *testing.T) {
	conn := katest.NewFakeConnection("c1", 100*time.Millisecond)
	conn.SetDelay(5 * time.Millisecond)
	s, guards := newTestScheduler(t)
	require.NoError(t, s.Init(conn))

	start := time.Now()
	require.NoError(t, s.Start())

	require.True(t, conn.WaitForProbes(1, time.Second))
	require.GreaterOrEqual(t, conn.ProbeTimes()[0].Sub(start), 100*time.Millisecond)

	require.Eventually(t, func() bool {
		return guards.Released(testTag) == 1
	}, time.Second, time.Millisecond)

	all := guards.Guards()
	require.Len(t, all, 1)
	guard, ok := all[0].(*sleepguard.Guard)
	require.True(t, ok)
	require.False(t, guard.IsHeld())
	require.GreaterOrEqual(t, guard.HeldFor(), 5*time.Millisecond)
	require.Less(t, guard.HeldFor(), 100*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, guards.Acquired(testTag))
}

// Stop before the first deadline: nothing fires and no guard is acquired.
func TestScheduler_StopBeforeDeadline(t *testing.T) {
	conn := katest.NewFakeConnection("c1", 100*time.Millisecond)
	s, guards := newTestScheduler(t)
	require.NoError(t, s.Init(conn))
	require.NoError(t, s.Start())

	time.Sleep(50 * time.Millisecond)
	s.Stop()

	time.Sleep(150 * time.Millisecond)
	require.Equal(t, 0, conn.Probes())
	require.Equal(t, 0, guards.Acquired(testTag))
	require.Equal(t, StateStopped, s.State())
}

// No token: the guard is acquired and released within the same firing.
func TestScheduler_NoTokenReleasesGuard(t *testing.T) {
	conn := katest.NewFakeConnection("c1", 20*time.Millisecond)
	conn.SetOutcome(katest.OutcomeNoToken)
	s, guards := newTestScheduler(t)
	require.NoError(t, s.Init(conn))
	require.NoError(t, s.Start())

	require.True(t, conn.WaitForProbes(1, time.Second))
	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, time.Millisecond)

	require.Equal(t, 1, guards.Acquired(testTag))
	require.Equal(t, 1, guards.Released(testTag))
	require.Equal(t, 0, guards.Held())
}

func TestScheduler_RearmOnFire(t *testing.T) {
	t.Run("disabled leaves scheduler idle", func(t *testing.T) {
		conn := katest.NewFakeConnection("c1", 20*time.Millisecond)
		s, _ := newTestScheduler(t)
		require.NoError(t, s.Init(conn))
		require.NoError(t, s.Start())

		require.True(t, conn.WaitForProbes(1, time.Second))
		require.Eventually(t, func() bool {
			return s.State() == StateIdle
		}, time.Second, time.Millisecond)

		time.Sleep(60 * time.Millisecond)
		require.Equal(t, 1, conn.Probes())
		require.True(t, s.IsStarted())

		require.NoError(t, s.Schedule(0))
		require.True(t, conn.WaitForProbes(2, time.Second))
	})

	t.Run("enabled keeps probing", func(t *testing.T) {
		conn := katest.NewFakeConnection("c1", 20*time.Millisecond)
		cfg := TestConfig()
		cfg.RearmOnFire = true
		s, err := NewScheduler(&cfg, WithGuardProvider(katest.NewGuardRecorder()))
		require.NoError(t, err)
		t.Cleanup(s.Stop)

		require.NoError(t, s.Init(conn))
		require.NoError(t, s.Start())

		require.True(t, conn.WaitForProbes(3, time.Second))
		require.LessOrEqual(t, s.pendingTimers(), 1)
		require.True(t, s.IsStarted())
	})
}

func TestScheduler_StopDuringFiring(t *testing.T) {
	conn := katest.NewFakeConnection("c1", 10*time.Millisecond)
	conn.SetOutcome(katest.OutcomePending)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	var once sync.Once
	conn.SetProbeHook(func() {
		once.Do(func() { close(entered) })
		<-unblock
	})

	s, guards := newTestScheduler(t)
	require.NoError(t, s.Init(conn))
	require.NoError(t, s.Start())

	<-entered
	require.Equal(t, StateFiring, s.State())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on in-flight heartbeat")
	}
	require.Equal(t, StateStopped, s.State())

	close(unblock)
	require.True(t, conn.WaitForProbes(1, time.Second))
	require.Equal(t, StateStopped, s.State(), "late firing does not leave Stopped")

	// The late completion still releases the guard.
	require.Equal(t, 1, guards.Held())
	require.Equal(t, 1, conn.SucceedPending())
	require.Equal(t, 0, guards.Held())
	require.Equal(t, 1, guards.Released(testTag))
}

func TestScheduler_Hooks(t *testing.T) {
	type transition struct{ from, to State }

	var mu sync.Mutex
	var seen []transition
	hooks := &Hooks{
		OnStateChanged: func(_ context.Context, connID string, from, to State) error {
			mu.Lock()
			defer mu.Unlock()
			if connID == "c1" {
				seen = append(seen, transition{from, to})
			}
			return nil
		},
	}

	conn := katest.NewFakeConnection("c1", 10*time.Millisecond)
	s, _ := newTestScheduler(t, WithHooks(hooks))
	require.NoError(t, s.Init(conn))
	require.NoError(t, s.Start())
	require.True(t, conn.WaitForProbes(1, time.Second))
	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, time.Millisecond)
	s.Stop()

	want := []transition{
		{StateUninitialized, StateStopped},
		{StateStopped, StateArmed},
		{StateArmed, StateFiring},
		{StateFiring, StateIdle},
		{StateIdle, StateStopped},
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == len(want)
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, want, seen)
}

func TestScheduler_ProbePanic(t *testing.T) {
	conn := katest.NewFakeConnection("c1", 10*time.Millisecond)
	conn.SetProbeHook(func() { panic("probe exploded") })

	reported := make(chan error, 1)
	s, guards := newTestScheduler(t, WithHooks(&Hooks{
		OnError: func(_ context.Context, err error) error {
			select {
			case reported <- err:
			default:
			}
			return nil
		},
	}))
	require.NoError(t, s.Init(conn))
	require.NoError(t, s.Start())

	select {
	case err := <-reported:
		require.ErrorContains(t, err, "probe exploded")
	case <-time.After(time.Second):
		t.Fatal("panic not reported")
	}

	require.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, guards.Released(testTag))

	// The worker survives the panic. The panicking call never reached the
	// probe log.
	conn.SetProbeHook(nil)
	require.NoError(t, s.Schedule(0))
	require.True(t, conn.WaitForProbes(1, time.Second))
}

func TestScheduler_ProbeFailureNotRetried(t *testing.T) {
	boom := errors.New("connection reset")
	conn := katest.NewFakeConnection("c1", 10*time.Millisecond)
	conn.SetOutcome(katest.OutcomeFail)
	conn.SetFailError(boom)

	failed := make(chan error, 1)
	s, guards := newTestScheduler(t, WithHooks(&Hooks{
		OnProbeFailed: func(_ context.Context, _ string, err error) error {
			failed <- err
			return nil
		},
	}))
	require.NoError(t, s.Init(conn))
	require.NoError(t, s.Start())

	select {
	case err := <-failed:
		require.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("OnProbeFailed not called")
	}

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, conn.Probes())
	require.Equal(t, 1, guards.Released(testTag))
}

// Concurrent lifecycle calls never break the single-timer invariant or leak guards.
func TestScheduler_ConcurrentLifecycle(t *testing.T) {
	conn := katest.NewFakeConnection("c1", time.Millisecond)
	conn.SetDelay(time.Millisecond)
	s, guards := newTestScheduler(t)
	require.NoError(t, s.Init(conn))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 100 {
				switch (i + j) % 3 {
				case 0:
					_ = s.Start()
				case 1:
					s.Stop()
				default:
					err := s.Schedule(time.Duration(j%3) * time.Millisecond)
					if err != nil {
						assert.ErrorIs(t, err, ErrNotStarted)
					}
				}
				assert.LessOrEqual(t, s.pendingTimers(), 1)
			}
		})
	}
	wg.Wait()

	s.Stop()
	require.Equal(t, StateStopped, s.State())
	require.Equal(t, 0, s.pendingTimers())

	require.Eventually(t, func() bool {
		return guards.Held() == 0
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, guards.Acquired(testTag), guards.Released(testTag))
}
