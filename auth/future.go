package auth

import (
	"context"
	"sync"
)

// Future is a single-assignment identity slot for subscription sessions,
// where resolution runs in the background while broker registrations are
// already live. Waiters suspend until Complete; evaluation must never poll.
type Future struct {
	once sync.Once
	done chan struct{}

	identity Identity
	err      error
}

func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Complete resolves the future. Only the first call has any effect.
func (f *Future) Complete(identity Identity, err error) {
	f.once.Do(func() {
		f.identity = identity
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future resolves or ctx is cancelled.
func (f *Future) Wait(ctx context.Context) (Identity, error) {
	select {
	case <-f.done:
		return f.identity, f.err
	case <-ctx.Done():
		return Identity{}, ctx.Err()
	}
}

// Done is closed once the future has resolved.
func (f *Future) Done() <-chan struct{} { return f.done }

// Err returns the resolution error. Only meaningful after Done is closed.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
