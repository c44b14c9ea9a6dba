package task

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrCanceled is the terminal error of a Task or Completion that was
// canceled before it ran.
var ErrCanceled = errors.New("task: canceled")

// State describes where a Task is in its lifecycle.
type State int32

const (
	// Created: the task has been constructed but not handed to a scheduler.
	Created State = iota
	// Queued: a scheduler has accepted the task but not started it.
	Queued
	// Running: the task body is executing.
	Running
	// Succeeded: the body returned nil.
	Succeeded
	// Faulted: the body returned an error or panicked.
	Faulted
	// Canceled: the task was canceled before it started running.
	Canceled
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Faulted:
		return "faulted"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the three terminal states.
func (s State) Terminal() bool {
	return s == Succeeded || s == Faulted || s == Canceled
}

// Task is a deferred computation that a scheduler executes at most once.
//
// Schedulers treat the body as opaque: they call Run (or TryRun) and the
// task settles itself into a terminal state. Observers read the outcome
// through State, Done, Err, or Wait. A Task must not be reused.
type Task struct {
	fn    func() error
	state atomic.Int32
	done  chan struct{}
	err   error // written once, before done is closed
}

// New creates a Task around fn. A nil fn yields a task that succeeds
// immediately when run.
func New(fn func() error) *Task {
	if fn == nil {
		fn = func() error { return nil }
	}
	return &Task{fn: fn, done: make(chan struct{})}
}

// State returns the task's current state. Under concurrent scheduling the
// value may be stale by the time the caller inspects it.
func (t *Task) State() State {
	return State(t.state.Load())
}

// Done returns a channel that is closed once the task reaches a terminal
// state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns nil until the task is terminal, then nil for success,
// ErrCanceled for cancellation, or the failure (possibly a *PanicError).
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task is terminal or ctx is done. It returns the
// task's terminal error, or ctx.Err() if the context fired first.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarkQueued transitions the task from Created to Queued. It reports
// whether the transition happened; schedulers call it when accepting work
// and a false return from an unexpected state means the task was already
// claimed elsewhere.
func (t *Task) MarkQueued() bool {
	return t.state.CompareAndSwap(int32(Created), int32(Queued))
}

// Cancel moves a not-yet-running task to Canceled and reports whether it
// did. Once the body has started, Cancel has no effect.
func (t *Task) Cancel() bool {
	if t.state.CompareAndSwap(int32(Created), int32(Canceled)) ||
		t.state.CompareAndSwap(int32(Queued), int32(Canceled)) {
		t.err = ErrCanceled
		close(t.done)
		return true
	}
	return false
}

// Claim atomically takes the exclusive right to execute the task. It is
// the at-most-once guard shared by every scheduler; false means the task
// already ran, is running, or was canceled. A successful Claim must be
// followed by RunClaimed.
func (t *Task) Claim() bool {
	return t.state.CompareAndSwap(int32(Created), int32(Running)) ||
		t.state.CompareAndSwap(int32(Queued), int32(Running))
}

// RunClaimed executes a task previously claimed via Claim on the calling
// goroutine. Splitting claim from run lets schedulers pair lifecycle
// hooks around exactly the executions they perform.
func (t *Task) RunClaimed() {
	t.execute()
}

// TryRun attempts to claim and execute the task on the calling goroutine,
// reporting whether this call performed the execution.
func (t *Task) TryRun() bool {
	if !t.Claim() {
		return false
	}
	t.execute()
	return true
}

// Run executes the task on the calling goroutine if it has not been
// claimed yet, and returns the task's terminal error. Calling Run on an
// already-terminal task returns its existing outcome.
func (t *Task) Run() error {
	t.TryRun()
	return t.Err()
}

func (t *Task) execute() {
	err := protect(t.fn)
	t.err = err
	if err != nil {
		t.state.Store(int32(Faulted))
	} else {
		t.state.Store(int32(Succeeded))
	}
	close(t.done)
}

// protect invokes fn, converting a panic into a *PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return fn()
}
