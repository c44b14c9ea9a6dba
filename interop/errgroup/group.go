// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics on top of a sched.Scheduler. It lets errgroup-shaped code pick
// where its functions execute without rewriting call sites.
package errgroup

import (
	"context"
	"sync"

	"github.com/NetPo4ki/go-sched/sched"
	"github.com/NetPo4ki/go-sched/sem"
	"github.com/NetPo4ki/go-sched/task"
)

// Group is an errgroup-like wrapper that runs its functions as tasks on
// a Scheduler. The first non-nil error cancels the group context and is
// returned by Wait.
type Group struct {
	sched  sched.Scheduler
	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	mu       sync.Mutex
	firstErr error
	lim      *sem.Semaphore
}

// WithScheduler creates a Group whose functions run on s. The returned
// context is canceled when any function returns a non-nil error or when
// Wait returns.
func WithScheduler(ctx context.Context, s sched.Scheduler) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Group{sched: s, ctx: ctx, cancel: cancel}, ctx
}

// SetLimit bounds the number of functions running at once using an
// internal async semaphore. It must be called before the first Go.
// A non-positive n removes the bound.
func (g *Group) SetLimit(n int) {
	if n <= 0 {
		g.lim = nil
		return
	}
	lim, err := sem.New(n, n)
	if err != nil {
		return
	}
	g.lim = lim
}

// Go submits f for execution on the group's scheduler. It never blocks
// on f itself; with CurrentThreadScheduler the execution happens on the
// tracking goroutine, not the caller's.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	t := task.New(f)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if g.lim != nil {
			w, err := g.lim.WaitAsync()
			if err != nil {
				g.fail(err)
				return
			}
			<-w.Done()
			if werr := w.Err(); werr != nil {
				g.fail(werr)
				return
			}
			defer func() { _ = g.lim.Release() }()
		}
		if err := g.sched.Schedule(t); err != nil && t.Cancel() {
			// The scheduler rejected the task and nothing else claimed
			// it; inline strategies instead surface the task's own
			// failure here, which the terminal state below also carries.
			g.fail(err)
			return
		}
		<-t.Done()
		if err := t.Err(); err != nil {
			g.fail(err)
		}
	}()
}

// Wait blocks until every submitted function has settled, cancels the
// group context, and returns the first non-nil error.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.cancel()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.firstErr
}

func (g *Group) fail(err error) {
	g.mu.Lock()
	if g.firstErr == nil {
		g.firstErr = err
	}
	g.mu.Unlock()
	g.cancel()
}
