//go:build darwin

package sleepguard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/arloliu/keepalive/types"
)

const caffeinateReleaseTimeout = 2 * time.Second

// NewDefaultProvider returns the macOS provider, which holds one
// `caffeinate -i -w <pid>` process per guard.
func NewDefaultProvider() types.GuardProvider {
	return &caffeinateProvider{
		hostPID:        os.Getpid(),
		execCmd:        exec.Command,
		releaseTimeout: caffeinateReleaseTimeout,
	}
}

type caffeinateProvider struct {
	hostPID        int
	execCmd        func(name string, args ...string) *exec.Cmd
	releaseTimeout time.Duration
}

func (p *caffeinateProvider) Acquire(ctx context.Context, tag string) (types.SleepGuard, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrGuardUnavailable, err)
	}

	// Idle-only inhibit bound to the host PID, so a crashed host never leaves
	// an orphaned inhibitor behind.
	cmd := p.execCmd("caffeinate", "-i", "-w", strconv.Itoa(p.hostPID))
	if err := cmd.Start(); err != nil {
		var ex *exec.Error
		if errors.As(err, &ex) || errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: caffeinate is unavailable: %w", types.ErrGuardUnavailable, err)
		}

		return nil, fmt.Errorf("%w: failed to start caffeinate: %w", types.ErrGuardUnavailable, err)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	return NewGuard(tag, func() error {
		_ = cmd.Process.Signal(unix.SIGTERM)

		select {
		case <-exited:
			return nil
		case <-time.After(p.releaseTimeout):
			_ = cmd.Process.Kill()

			return fmt.Errorf("release timed out waiting for caffeinate exit (tag %s)", tag)
		}
	}), nil
}
