//go:build linux

package sleepguard

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/keepalive/types"
)

func TestNewLogindProvider(t *testing.T) {
	p := NewLogindProvider("keepalive-test", "block")

	require.Equal(t, "keepalive-test", p.who)
	require.Equal(t, "block", p.mode)
	require.NotNil(t, p.connect)
	require.Nil(t, p.conn)

	_, ok := NewDefaultProvider().(*LogindProvider)
	require.True(t, ok)
}

func TestLogindProvider_BusUnavailable(t *testing.T) {
	p := NewLogindProvider("keepalive-test", "block")
	p.connect = func() (*dbus.Conn, error) {
		return nil, errors.New("no bus")
	}

	g, err := p.Acquire(t.Context(), "keepalive.ping.c1")
	require.Nil(t, g)
	require.ErrorIs(t, err, types.ErrGuardUnavailable)
	require.NoError(t, p.Close())
}

func TestLogindProvider_SystemBus(t *testing.T) {
	p := NewLogindProvider("keepalive-test", "delay")
	defer func() { _ = p.Close() }()

	g, err := p.Acquire(t.Context(), "keepalive.ping.c1")
	if err != nil {
		t.Skipf("logind not reachable: %v", err)
	}

	require.True(t, g.IsHeld())
	require.NoError(t, g.Release())
	require.False(t, g.IsHeld())
}
