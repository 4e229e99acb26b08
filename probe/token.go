// Package probe provides the completion token connection adapters return
// from ProbeLiveness.
//
// A Token carries exactly one outcome. Succeed and Fail race freely from any
// goroutine; the first call wins, runs the matching callback, and closes Done.
// Every later call is a no-op.
//
//	func (c *Conn) ProbeLiveness(onSuccess func(), onFailure func(error)) types.PingToken {
//	    token := probe.NewToken(onSuccess, onFailure)
//	    go func() {
//	        if err := c.roundTrip(); err != nil {
//	            token.Fail(err)
//	            return
//	        }
//	        token.Succeed()
//	    }()
//	    return token
//	}
package probe

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/arloliu/keepalive/types"
)

// errUnknownFailure is reported when Fail is called with a nil error.
var errUnknownFailure = errors.New("liveness probe failed")

// Token is a one-shot probe outcome.
type Token struct {
	onSuccess func()
	onFailure func(error)

	once      sync.Once
	completed atomic.Bool
	done      chan struct{}
	err       error
}

// Compile-time assertion that Token implements PingToken.
var _ types.PingToken = (*Token)(nil)

// NewToken creates a pending token. Either callback may be nil.
func NewToken(onSuccess func(), onFailure func(err error)) *Token {
	return &Token{
		onSuccess: onSuccess,
		onFailure: onFailure,
		done:      make(chan struct{}),
	}
}

// Succeed completes the token successfully.
//
// Returns:
//   - bool: true if this call delivered the outcome
func (t *Token) Succeed() bool {
	return t.complete(nil)
}

// Fail completes the token with err. A nil err is replaced by a generic failure.
//
// Returns:
//   - bool: true if this call delivered the outcome
func (t *Token) Fail(err error) bool {
	if err == nil {
		err = errUnknownFailure
	}

	return t.complete(err)
}

// Done is closed once the outcome is delivered and its callback returned.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Err returns the failure cause, or nil on success or while pending.
func (t *Token) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Completed reports whether an outcome has been claimed.
func (t *Token) Completed() bool {
	return t.completed.Load()
}

func (t *Token) complete(err error) bool {
	won := false
	t.once.Do(func() {
		won = true
		t.completed.Store(true)
		t.err = err
		defer close(t.done)

		if err == nil {
			if t.onSuccess != nil {
				t.onSuccess()
			}

			return
		}
		if t.onFailure != nil {
			t.onFailure(err)
		}
	})

	return won
}
