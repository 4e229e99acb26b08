//go:build linux

package sleepguard

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"

	"github.com/arloliu/keepalive/types"
)

const (
	logindDest   = "org.freedesktop.login1"
	logindPath   = dbus.ObjectPath("/org/freedesktop/login1")
	logindMethod = "org.freedesktop.login1.Manager.Inhibit"
)

// LogindProvider takes systemd-logind inhibitor locks over the system bus.
//
// Each guard owns one inhibitor file descriptor; releasing the guard closes it.
// The bus connection is opened on first Acquire and shared by every guard.
type LogindProvider struct {
	who  string
	mode string

	connect func() (*dbus.Conn, error)

	mu   sync.Mutex
	conn *dbus.Conn
}

var _ types.GuardProvider = (*LogindProvider)(nil)

// NewDefaultProvider returns the Linux logind provider in "block" mode.
func NewDefaultProvider() types.GuardProvider {
	return NewLogindProvider("keepalive", "block")
}

// NewLogindProvider creates a logind provider.
//
// Parameters:
//   - who: Application name shown by `systemd-inhibit --list`
//   - mode: "block" prevents suspend while held; "delay" only postpones it
func NewLogindProvider(who, mode string) *LogindProvider {
	return &LogindProvider{
		who:     who,
		mode:    mode,
		connect: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() },
	}
}

// Acquire takes a "sleep" inhibitor lock whose reason is the guard tag.
func (p *LogindProvider) Acquire(ctx context.Context, tag string) (types.SleepGuard, error) {
	conn, err := p.bus()
	if err != nil {
		return nil, err
	}

	var fd dbus.UnixFD
	obj := conn.Object(logindDest, logindPath)
	call := obj.CallWithContext(ctx, logindMethod, 0, "sleep", p.who, tag, p.mode)
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("%w: logind inhibit: %w", types.ErrGuardUnavailable, err)
	}

	return NewGuard(tag, func() error {
		return unix.Close(int(fd))
	}), nil
}

// Close closes the shared bus connection. Guards already handed out keep
// their inhibitor descriptors until released.
func (p *LogindProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil

	return err
}

func (p *LogindProvider) bus() (*dbus.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && p.conn.Connected() {
		return p.conn, nil
	}

	conn, err := p.connect()
	if err != nil {
		return nil, fmt.Errorf("%w: system bus: %w", types.ErrGuardUnavailable, err)
	}
	p.conn = conn

	return conn, nil
}
