package sem

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/deque"

	"github.com/NetPo4ki/go-sched/task"
)

var (
	// ErrDisposed is returned by every operation after Dispose.
	ErrDisposed = errors.New("sem: semaphore disposed")
	// ErrOverflow is returned by Release when the semaphore is already at
	// capacity and nobody is waiting. It signals a caller logic error,
	// not a transient condition.
	ErrOverflow = errors.New("sem: release would exceed max count")
)

// Semaphore is a counting semaphore with asynchronous acquisition.
// WaitAsync never blocks: it either takes a permit immediately or
// registers a waiter whose Completion settles when a permit arrives.
// Waiters are served in strict FIFO order; no waiter is skipped while an
// earlier one is still queued.
//
// One mutex guards the count and the waiter queue jointly, so no
// interleaving of WaitAsync and Release can observe a state where
// permits are hoarded while consumers wait: whenever the waiter queue is
// non-empty, the count is zero.
type Semaphore struct {
	mu       sync.Mutex
	count    int
	max      int
	waiters  deque.Deque[*task.Completion]
	disposed bool
}

// New creates a semaphore holding initial permits out of a fixed ceiling
// of max. It fails for max < 1 or initial outside [0, max].
func New(initial, max int) (*Semaphore, error) {
	if max < 1 {
		return nil, fmt.Errorf("sem: max count must be positive, got %d", max)
	}
	if initial < 0 || initial > max {
		return nil, fmt.Errorf("sem: initial count %d out of range [0, %d]", initial, max)
	}
	return &Semaphore{count: initial, max: max}, nil
}

// WaitAsync acquires a permit asynchronously. With permits available it
// decrements the count and returns an already-settled Completion; the
// caller holds a permit the moment it returns. Otherwise it queues a
// waiter at the tail and returns its pending Completion, which settles
// with nil when Release hands it a permit, or with task.ErrCanceled when
// the semaphore is disposed.
func (s *Semaphore) WaitAsync() (*task.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil, ErrDisposed
	}
	if s.count > 0 {
		s.count--
		return task.NewSettled(nil), nil
	}
	w := task.NewCompletion()
	s.waiters.PushBack(w)
	return w, nil
}

// Release returns a permit. If anyone is waiting, the head waiter gets
// the permit directly and the count is untouched. With no waiters the
// count is incremented, unless it already sits at max, which fails with
// ErrOverflow. Excess releases while waiters are queued are deliberately
// absorbed as hand-offs rather than flagged.
func (s *Semaphore) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	if s.waiters.Len() > 0 {
		w := s.waiters.PopFront()
		w.Settle(nil)
		return nil
	}
	if s.count == s.max {
		return ErrOverflow
	}
	s.count++
	return nil
}

// Queue runs action once a permit is available and releases the permit
// on every exit path, panics included; skipping the release on failure
// would shrink capacity permanently. The returned Completion settles
// with action's outcome. The synchronous error is non-nil only when the
// semaphore is already disposed.
func (s *Semaphore) Queue(action func() error) (*task.Completion, error) {
	w, err := s.WaitAsync()
	if err != nil {
		return nil, err
	}
	res := task.NewCompletion()
	go func() {
		<-w.Done()
		if werr := w.Err(); werr != nil {
			// The wait was canceled by disposal; no permit was granted,
			// so there is nothing to release.
			res.Settle(werr)
			return
		}
		t := task.New(action)
		t.TryRun()
		// Release before settling so a continuation observing res sees
		// the capacity already restored. A post-disposal release is moot.
		_ = s.Release()
		res.Settle(t.Err())
	}()
	return res, nil
}

// CurrentCount returns the number of available permits. Diagnostic only
// under concurrency.
func (s *Semaphore) CurrentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// MaxCount returns the fixed permit ceiling.
func (s *Semaphore) MaxCount() int { return s.max }

// Dispose closes the semaphore. Every queued waiter settles with
// task.ErrCanceled, in FIFO order and without a permit; subsequent
// operations fail with ErrDisposed. Dispose is idempotent.
func (s *Semaphore) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	for s.waiters.Len() > 0 {
		s.waiters.PopFront().Settle(task.ErrCanceled)
	}
}
