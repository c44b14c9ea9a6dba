package sched

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"

	"github.com/NetPo4ki/go-sched/task"
)

// PoolScheduler owns a fixed set of dedicated, long-lived workers that
// pull from one shared blocking queue. Each worker pins itself through
// the pool's Affinity before taking work; that thread configuration is
// why the pool cannot borrow goroutines from anywhere else.
//
// Schedule never blocks the caller. Close marks the queue complete,
// waits for the workers to drain every accepted task and exit, and is
// safe to call more than once.
type PoolScheduler struct {
	n   int
	aff Affinity
	obs Observer

	mu     sync.Mutex
	cond   *sync.Cond
	q      deque.Deque[*task.Task]
	closed bool

	workers  sync.WaitGroup
	executed atomic.Int64
	reported atomic.Bool
}

var _ Scheduler = (*PoolScheduler)(nil)

// NewPoolScheduler starts a pool of n workers. It fails for n < 1 or
// when a worker thread cannot be configured by the affinity capability.
func NewPoolScheduler(n int, opts ...Option) (*PoolScheduler, error) {
	if n < 1 {
		return nil, fmt.Errorf("sched: pool requires at least 1 worker, got %d", n)
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.Affinity == nil {
		o.Affinity = &OSThreadAffinity{}
	}
	p := &PoolScheduler{n: n, aff: o.Affinity, obs: o.Observer}
	p.cond = sync.NewCond(&p.mu)
	p.workers.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p, nil
}

func (p *PoolScheduler) worker() {
	defer p.workers.Done()
	unpin, err := p.aff.Pin()
	if err != nil {
		// An unpinnable worker still drains work; the affinity predicate
		// just never admits it for inline execution.
		unpin = func() {}
	}
	defer unpin()

	for {
		p.mu.Lock()
		for p.q.Len() == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.q.Len() == 0 {
			p.mu.Unlock()
			return
		}
		t := p.q.PopFront()
		p.mu.Unlock()
		if observe(p.obs, t) {
			p.executed.Add(1)
		}
	}
}

// Schedule pushes t onto the shared queue. It fails with ErrClosed once
// the pool has been closed.
func (p *PoolScheduler) Schedule(t *task.Task) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	t.MarkQueued()
	p.q.PushBack(t)
	p.cond.Signal()
	p.mu.Unlock()
	if p.obs != nil {
		p.obs.WorkScheduled()
	}
	return nil
}

// TryRunInline runs t on the calling goroutine only when that goroutine
// is one of the pool's affinity-configured workers and the task has not
// been claimed yet. Anywhere else it reports false and leaves t alone.
func (p *PoolScheduler) TryRunInline(t *task.Task, _ bool) bool {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed || !p.aff.Compatible() {
		return false
	}
	if observe(p.obs, t) {
		p.executed.Add(1)
		return true
	}
	return false
}

// Pending returns a snapshot copy of queued tasks for diagnostics.
func (p *PoolScheduler) Pending() []*task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*task.Task, 0, p.q.Len())
	for i := 0; i < p.q.Len(); i++ {
		if t := p.q.At(i); t.State() == task.Queued {
			out = append(out, t)
		}
	}
	return out
}

// MaxConcurrency returns the worker count.
func (p *PoolScheduler) MaxConcurrency() int { return p.n }

// Close marks the queue complete and blocks until every worker has
// drained the remaining tasks and exited. A second Close is a no-op.
func (p *PoolScheduler) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.cond.Broadcast()
	}
	p.mu.Unlock()
	p.workers.Wait()
	if p.obs != nil && p.reported.CompareAndSwap(false, true) {
		p.obs.SchedulerClosed(p.executed.Load())
	}
	return nil
}
