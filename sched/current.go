package sched

import "github.com/NetPo4ki/go-sched/task"

// CurrentThreadScheduler executes every task synchronously on whatever
// goroutine calls it. Schedule blocks for the duration of the task; that
// is the point of the strategy, not a defect. Nothing is ever queued, so
// Pending is always empty and concurrency is 1.
//
// The zero value is ready to use.
type CurrentThreadScheduler struct {
	obs Observer
}

var _ Scheduler = (*CurrentThreadScheduler)(nil)

// NewCurrentThreadScheduler returns a current-thread scheduler.
func NewCurrentThreadScheduler(opts ...Option) *CurrentThreadScheduler {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &CurrentThreadScheduler{obs: o.Observer}
}

// Schedule runs t to completion on the calling goroutine and returns the
// task's terminal error, surfacing inline faults directly to the caller.
func (s *CurrentThreadScheduler) Schedule(t *task.Task) error {
	if s.obs != nil {
		s.obs.WorkScheduled()
	}
	observe(s.obs, t)
	return t.Err()
}

// TryRunInline always runs t immediately; the calling goroutine is by
// definition the right place. It reports false only when the task was
// already claimed.
func (s *CurrentThreadScheduler) TryRunInline(t *task.Task, _ bool) bool {
	return observe(s.obs, t)
}

// Pending returns nil: this strategy never queues.
func (s *CurrentThreadScheduler) Pending() []*task.Task { return nil }

// MaxConcurrency returns 1.
func (s *CurrentThreadScheduler) MaxConcurrency() int { return 1 }
