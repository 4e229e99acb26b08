package testing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardRecorder(t *testing.T) {
	r := NewGuardRecorder()

	g1, err := r.Acquire(t.Context(), "a")
	require.NoError(t, err)
	g2, err := r.Acquire(t.Context(), "a")
	require.NoError(t, err)

	require.Equal(t, 2, r.Acquired("a"))
	require.Equal(t, 2, r.Held())

	require.NoError(t, g1.Release())
	require.NoError(t, g1.Release())
	require.Equal(t, 1, r.Released("a"))
	require.Equal(t, 1, r.Held())

	require.NoError(t, g2.Release())
	require.Equal(t, 2, r.Released("a"))
	require.Equal(t, 0, r.Held())
	require.Len(t, r.Guards(), 2)
}

func TestGuardRecorder_AcquireError(t *testing.T) {
	boom := errors.New("boom")
	r := NewGuardRecorder()
	r.SetAcquireError(boom)

	g, err := r.Acquire(t.Context(), "a")
	require.ErrorIs(t, err, boom)
	require.Nil(t, g)
	require.Equal(t, 0, r.Acquired("a"))

	r.SetAcquireError(nil)
	_, err = r.Acquire(t.Context(), "a")
	require.NoError(t, err)
}
