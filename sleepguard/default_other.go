//go:build !linux && !darwin

package sleepguard

import "github.com/arloliu/keepalive/types"

// NewDefaultProvider returns the nop provider on platforms without a
// supported process-scoped sleep inhibitor.
func NewDefaultProvider() types.GuardProvider {
	return NewNopProvider()
}
