package sched

import (
	"errors"
	"sync"

	"github.com/gammazero/deque"

	"github.com/NetPo4ki/go-sched/task"
)

// ErrNilLoop is returned by NewLoopScheduler when no run loop is given.
var ErrNilLoop = errors.New("sched: loop scheduler requires a run loop")

// LoopScheduler marshals every task onto a single RunLoop, serializing
// execution while keeping Schedule non-blocking. Each Schedule pairs one
// queued task with exactly one posted callback; the callback dequeues one
// task and runs it, so a burst of Schedule calls cannot flood the loop
// ahead of its own drain rate and execution preserves FIFO order.
type LoopScheduler struct {
	loop RunLoop
	obs  Observer

	mu sync.Mutex
	q  deque.Deque[*task.Task]
}

var _ Scheduler = (*LoopScheduler)(nil)

// NewLoopScheduler binds a scheduler to loop. There is no ambient
// default: a nil loop fails construction.
func NewLoopScheduler(loop RunLoop, opts ...Option) (*LoopScheduler, error) {
	if loop == nil {
		return nil, ErrNilLoop
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &LoopScheduler{loop: loop, obs: o.Observer}, nil
}

// Schedule enqueues t and posts one dequeue-and-run callback to the loop.
// It returns without waiting for execution.
func (s *LoopScheduler) Schedule(t *task.Task) error {
	t.MarkQueued()
	s.mu.Lock()
	s.q.PushBack(t)
	s.mu.Unlock()
	if s.obs != nil {
		s.obs.WorkScheduled()
	}
	if err := s.loop.Post(s.runOne); err != nil {
		// No callback will ever drain this entry; take it back out.
		s.mu.Lock()
		if i := s.q.Index(func(x *task.Task) bool { return x == t }); i >= 0 {
			s.q.Remove(i)
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// runOne executes exactly one queued task on the loop.
func (s *LoopScheduler) runOne() {
	s.mu.Lock()
	if s.q.Len() == 0 {
		s.mu.Unlock()
		return
	}
	t := s.q.PopFront()
	s.mu.Unlock()
	observe(s.obs, t)
}

// TryRunInline runs t only when the caller is already inside the target
// loop; from anywhere else it reports false without touching t.
func (s *LoopScheduler) TryRunInline(t *task.Task, _ bool) bool {
	if !s.loop.Current() {
		return false
	}
	return observe(s.obs, t)
}

// Pending returns a snapshot of queued tasks that have not started.
func (s *LoopScheduler) Pending() []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*task.Task, 0, s.q.Len())
	for i := 0; i < s.q.Len(); i++ {
		if t := s.q.At(i); t.State() == task.Queued {
			out = append(out, t)
		}
	}
	return out
}

// MaxConcurrency returns 1: the loop is inherently single-threaded.
func (s *LoopScheduler) MaxConcurrency() int { return 1 }
