package task

import (
	"context"
	"sync"
)

// Completion is a settable, single-shot future carrying no value.
// The semaphore hands one to every asynchronous waiter; Settle is called
// exactly once by whoever grants the permit (or cancels the wait).
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewCompletion returns an unsettled Completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// NewSettled returns a Completion that is already settled with err.
func NewSettled(err error) *Completion {
	c := NewCompletion()
	c.Settle(err)
	return c
}

// Settle resolves the completion with err (nil for success). Only the
// first call takes effect; Settle reports whether this call was it.
func (c *Completion) Settle(err error) bool {
	settled := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		settled = true
	})
	return settled
}

// Done returns a channel closed once the completion settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the settled error, or nil while unsettled. Distinguish the
// two by checking Done first.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Settled reports whether the completion has resolved.
func (c *Completion) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the completion settles or ctx is done.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
