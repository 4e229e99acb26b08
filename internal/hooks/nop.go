// Package hooks provides default Hooks implementations.
package hooks

import (
	"context"

	"github.com/arloliu/keepalive/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, string, types.State, types.State) error = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, string, error) error                    = (*NopHooks)(nil).OnProbeFailed
	_ func(context.Context, error) error                            = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
func NewNop() types.Hooks {
	h := &NopHooks{}

	return types.Hooks{
		OnStateChanged: h.OnStateChanged,
		OnProbeFailed:  h.OnProbeFailed,
		OnError:        h.OnError,
	}
}

// WithDefaults returns a copy of h where every nil callback is replaced by its no-op.
//
// Parameters:
//   - h: User supplied hooks (may be nil)
//
// Returns:
//   - types.Hooks: Hooks with every callback non-nil
func WithDefaults(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnStateChanged != nil {
		out.OnStateChanged = h.OnStateChanged
	}
	if h.OnProbeFailed != nil {
		out.OnProbeFailed = h.OnProbeFailed
	}
	if h.OnError != nil {
		out.OnError = h.OnError
	}

	return out
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _ string, _, _ types.State) error {
	return nil
}

// OnProbeFailed is a no-op implementation.
func (h *NopHooks) OnProbeFailed(_ context.Context, _ string, _ error) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ error) error {
	return nil
}
