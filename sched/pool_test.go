package sched

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NetPo4ki/go-sched/task"
)

func TestPoolRequiresWorkers(t *testing.T) {
	t.Parallel()
	if _, err := NewPoolScheduler(0); err == nil {
		t.Fatal("expected error for zero workers")
	}
	if _, err := NewPoolScheduler(-3); err == nil {
		t.Fatal("expected error for negative workers")
	}
}

func TestPoolExhaustiveDrainOnClose(t *testing.T) {
	t.Parallel()
	p, err := NewPoolScheduler(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const n = 10
	var runs atomic.Int32
	tasks := make([]*task.Task, 0, n)
	for i := 0; i < n; i++ {
		tk := task.New(func() error {
			runs.Add(1)
			time.Sleep(2 * time.Millisecond)
			return nil
		})
		tasks = append(tasks, tk)
		if err := p.Schedule(tk); err != nil {
			t.Fatalf("schedule %d: %v", i, err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := runs.Load(); got != n {
		t.Fatalf("Close returned with %d/%d tasks executed", got, n)
	}
	for i, tk := range tasks {
		if st := tk.State(); st != task.Succeeded {
			t.Fatalf("task %d state = %s, want succeeded", i, st)
		}
	}
}

func TestPoolScheduleAfterClose(t *testing.T) {
	t.Parallel()
	p, err := NewPoolScheduler(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = p.Close()
	if err := p.Schedule(task.New(func() error { return nil })); !errors.Is(err, ErrClosed) {
		t.Fatalf("Schedule = %v, want ErrClosed", err)
	}
}

func TestPoolDoubleClose(t *testing.T) {
	t.Parallel()
	p, err := NewPoolScheduler(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = p.Schedule(task.New(func() error { return nil }))
	if err := p.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestPoolParallelism(t *testing.T) {
	t.Parallel()
	const n = 3
	p, err := NewPoolScheduler(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()
	if got := p.MaxConcurrency(); got != n {
		t.Fatalf("MaxConcurrency = %d, want %d", got, n)
	}

	var active, peak atomic.Int64
	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < n*2; i++ {
		wg.Add(1)
		_ = p.Schedule(task.New(func() error {
			defer wg.Done()
			c := active.Add(1)
			defer active.Add(-1)
			for {
				if m := peak.Load(); c <= m || peak.CompareAndSwap(m, c) {
					break
				}
			}
			<-gate
			return nil
		}))
	}
	time.Sleep(30 * time.Millisecond)
	close(gate)
	wg.Wait()
	if got := peak.Load(); got != n {
		t.Fatalf("peak concurrency = %d, want %d", got, n)
	}
}

func TestPoolPendingSnapshot(t *testing.T) {
	t.Parallel()
	p, err := NewPoolScheduler(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gate := make(chan struct{})
	busy := task.New(func() error {
		<-gate
		return nil
	})
	_ = p.Schedule(busy)
	// Wait for the single worker to pick up the blocker.
	for busy.State() != task.Running {
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < 3; i++ {
		_ = p.Schedule(task.New(func() error { return nil }))
	}
	if got := len(p.Pending()); got != 3 {
		t.Fatalf("Pending = %d, want 3", got)
	}
	close(gate)
	_ = p.Close()
	if got := len(p.Pending()); got != 0 {
		t.Fatalf("Pending after drain = %d, want 0", got)
	}
}

func TestPoolInlineRefusedOffWorkerThread(t *testing.T) {
	t.Parallel()
	p, err := NewPoolScheduler(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()
	tk := task.New(func() error { return nil })
	if p.TryRunInline(tk, false) {
		t.Fatal("caller is not an affinity worker; inline must be refused")
	}
	if st := tk.State(); st != task.Created {
		t.Fatalf("refused task must be untouched, state = %s", st)
	}
}

func TestPoolInlineWithTrivialAffinity(t *testing.T) {
	t.Parallel()
	p, err := NewPoolScheduler(1, WithAffinity(NoAffinity{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()
	tk := task.New(func() error { return nil })
	if !p.TryRunInline(tk, false) {
		t.Fatal("trivial affinity admits every caller")
	}
	if st := tk.State(); st != task.Succeeded {
		t.Fatalf("state = %s, want succeeded", st)
	}
	if p.TryRunInline(tk, true) {
		t.Fatal("second inline attempt should fail the task's run guard")
	}
}

func TestPoolInlineOnWorkerThread(t *testing.T) {
	t.Parallel()
	p, err := NewPoolScheduler(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inner := task.New(func() error { return nil })
	probe := task.New(func() error {
		if !p.TryRunInline(inner, false) {
			return errors.New("worker thread should be affinity-compatible")
		}
		return nil
	})
	_ = p.Schedule(probe)
	_ = p.Close()
	if err := probe.Err(); err != nil {
		t.Fatal(err)
	}
}

type countObserver struct {
	scheduled atomic.Int64
	started   atomic.Int64
	finished  atomic.Int64
	errored   atomic.Int64
	closed    atomic.Int64
}

func (o *countObserver) WorkScheduled() { o.scheduled.Add(1) }
func (o *countObserver) WorkStarted()   { o.started.Add(1) }
func (o *countObserver) WorkFinished(_ time.Duration, err error) {
	o.finished.Add(1)
	if err != nil {
		o.errored.Add(1)
	}
}
func (o *countObserver) SchedulerClosed(int64) { o.closed.Add(1) }

func TestPoolObserverHooks(t *testing.T) {
	t.Parallel()
	obs := &countObserver{}
	p, err := NewPoolScheduler(2, WithObserver(obs))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = p.Schedule(task.New(func() error { return nil }))
	_ = p.Schedule(task.New(func() error { return errors.New("bad") }))
	_ = p.Close()
	_ = p.Close()
	if obs.scheduled.Load() != 2 || obs.started.Load() != 2 || obs.finished.Load() != 2 {
		t.Fatalf("unexpected observer counts: scheduled=%d started=%d finished=%d",
			obs.scheduled.Load(), obs.started.Load(), obs.finished.Load())
	}
	if obs.errored.Load() != 1 {
		t.Fatalf("errored = %d, want 1", obs.errored.Load())
	}
	if obs.closed.Load() != 1 {
		t.Fatalf("closed hook fired %d times, want once", obs.closed.Load())
	}
}
