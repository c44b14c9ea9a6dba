package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunAtMostOnce(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	tk := New(func() error {
		runs.Add(1)
		return nil
	})

	const callers = 16
	var claimed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if tk.TryRun() {
				claimed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Fatalf("body ran %d times, want 1", got)
	}
	if got := claimed.Load(); got != 1 {
		t.Fatalf("%d callers claimed the run, want 1", got)
	}
	if st := tk.State(); st != Succeeded {
		t.Fatalf("state = %s, want succeeded", st)
	}
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()
	tk := New(func() error { return nil })
	if st := tk.State(); st != Created {
		t.Fatalf("new task state = %s, want created", st)
	}
	if !tk.MarkQueued() {
		t.Fatal("MarkQueued on fresh task should succeed")
	}
	if tk.MarkQueued() {
		t.Fatal("second MarkQueued should report false")
	}
	if err := tk.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if st := tk.State(); st != Succeeded {
		t.Fatalf("state = %s, want succeeded", st)
	}
	select {
	case <-tk.Done():
	default:
		t.Fatal("Done channel should be closed after run")
	}
}

func TestFaultCarriesError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	tk := New(func() error { return boom })
	if err := tk.Run(); !errors.Is(err, boom) {
		t.Fatalf("Run returned %v, want boom", err)
	}
	if st := tk.State(); st != Faulted {
		t.Fatalf("state = %s, want faulted", st)
	}
}

func TestPanicBecomesFault(t *testing.T) {
	t.Parallel()
	tk := New(func() error { panic("kaboom") })
	err := tk.Run()
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if pe.Value != "kaboom" {
		t.Fatalf("panic value = %v, want kaboom", pe.Value)
	}
	if pe.Stack == "" {
		t.Fatal("expected captured stack")
	}
	if st := tk.State(); st != Faulted {
		t.Fatalf("state = %s, want faulted", st)
	}
}

func TestCancelBeforeRun(t *testing.T) {
	t.Parallel()
	tk := New(func() error {
		t.Error("canceled task body must not run")
		return nil
	})
	if !tk.Cancel() {
		t.Fatal("Cancel on fresh task should succeed")
	}
	if tk.TryRun() {
		t.Fatal("TryRun after cancel should report false")
	}
	if st := tk.State(); st != Canceled {
		t.Fatalf("state = %s, want canceled", st)
	}
	if err := tk.Err(); !errors.Is(err, ErrCanceled) {
		t.Fatalf("Err = %v, want ErrCanceled", err)
	}
}

func TestCancelAfterRunIsNoop(t *testing.T) {
	t.Parallel()
	tk := New(func() error { return nil })
	_ = tk.Run()
	if tk.Cancel() {
		t.Fatal("Cancel after completion should report false")
	}
	if st := tk.State(); st != Succeeded {
		t.Fatalf("state = %s, want succeeded", st)
	}
}

func TestWaitRespectsContext(t *testing.T) {
	t.Parallel()
	tk := New(func() error { return nil })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tk.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v, want deadline exceeded", err)
	}
	_ = tk.Run()
	if err := tk.Wait(context.Background()); err != nil {
		t.Fatalf("Wait after run = %v, want nil", err)
	}
}

func TestClaimIsExclusive(t *testing.T) {
	t.Parallel()
	tk := New(func() error { return nil })
	if !tk.Claim() {
		t.Fatal("first Claim should succeed")
	}
	if tk.Claim() {
		t.Fatal("second Claim should fail")
	}
	if tk.TryRun() {
		t.Fatal("TryRun must not bypass an outstanding claim")
	}
	tk.RunClaimed()
	if st := tk.State(); st != Succeeded {
		t.Fatalf("state = %s, want succeeded", st)
	}
}

func TestNilBodySucceeds(t *testing.T) {
	t.Parallel()
	tk := New(nil)
	if err := tk.Run(); err != nil {
		t.Fatalf("nil body should succeed, got %v", err)
	}
}
