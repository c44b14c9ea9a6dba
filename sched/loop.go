package sched

import (
	"errors"
	"sync"

	"github.com/gammazero/deque"
)

// ErrLoopClosed is returned by Loop.Post after the loop has shut down.
var ErrLoopClosed = errors.New("sched: run loop closed")

// RunLoop is a single-threaded execution context that callbacks can be
// posted to, in the spirit of a UI message loop. Current reports whether
// the caller is already executing inside the loop, which is what makes
// inline execution safe for a LoopScheduler.
type RunLoop interface {
	// Post hands fn to the loop for later execution. Posted callbacks
	// run one at a time, in post order.
	Post(fn func()) error
	// Current reports whether the calling goroutine is the loop itself.
	Current() bool
}

// Loop is an in-process RunLoop: one goroutine, locked to its OS thread,
// draining posted callbacks in FIFO order. The post queue is unbounded,
// so callbacks may safely post further callbacks from inside the loop.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	q      deque.Deque[func()]
	closed bool
	exited chan struct{}
	aff    OSThreadAffinity
}

var _ RunLoop = (*Loop)(nil)

// NewLoop starts a run loop. The caller owns it and must Close it.
func NewLoop() *Loop {
	l := &Loop{exited: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.exited)
	unpin, err := l.aff.Pin()
	if err == nil {
		defer unpin()
	}
	for {
		l.mu.Lock()
		for l.q.Len() == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.q.Len() == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.q.PopFront()
		l.mu.Unlock()
		fn()
	}
}

// Post enqueues fn on the loop. It never blocks on fn's execution.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.q.PushBack(fn)
	l.cond.Signal()
	l.mu.Unlock()
	return nil
}

// Current reports whether the caller is running on the loop's thread.
func (l *Loop) Current() bool {
	return l.aff.Compatible()
}

// Close stops accepting posts, drains the ones already accepted, and
// waits for the loop goroutine to exit. Safe to call more than once.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.cond.Signal()
	}
	l.mu.Unlock()
	<-l.exited
	return nil
}
