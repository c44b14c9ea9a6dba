package sched

import (
	"errors"
	"time"

	"github.com/NetPo4ki/go-sched/task"
)

// ErrClosed is returned by scheduler operations after Close.
var ErrClosed = errors.New("sched: scheduler closed")

// Scheduler is an execution strategy for tasks.
//
// A task handed to a scheduler is executed at most once by that
// scheduler: the task's own claim guard makes a second execution attempt
// a no-op, whether it arrives through Schedule or TryRunInline.
type Scheduler interface {
	// Schedule accepts t for execution. Apart from
	// CurrentThreadScheduler, which runs t synchronously before
	// returning, Schedule never blocks on the task's execution.
	Schedule(t *task.Task) error

	// TryRunInline attempts to execute t synchronously on the calling
	// goroutine, subject to the strategy's eligibility rule, and reports
	// whether t actually ran here. wasQueued tells the strategy whether
	// t had previously been accepted by Schedule. A false return leaves
	// t untouched so the original scheduling path can still run it.
	TryRunInline(t *task.Task, wasQueued bool) bool

	// Pending returns a snapshot of accepted tasks that have not started.
	// Diagnostic only: under concurrent mutation the snapshot is stale
	// the moment it is taken.
	Pending() []*task.Task

	// MaxConcurrency returns the strategy's concurrency ceiling, >= 1.
	MaxConcurrency() int
}

// Observer receives scheduler lifecycle events. Implementations must be
// safe for concurrent use; hooks are called on scheduler goroutines and
// must not block.
type Observer interface {
	// WorkScheduled fires when a task is accepted for execution.
	WorkScheduled()
	// WorkStarted fires just before a task body runs.
	WorkStarted()
	// WorkFinished fires after a task settles, with its run duration and
	// terminal error (nil on success).
	WorkFinished(d time.Duration, err error)
	// SchedulerClosed fires once when a closable scheduler finishes
	// draining, with the number of tasks it executed over its lifetime.
	SchedulerClosed(executed int64)
}

// observe runs t and reports the execution to obs, which may be nil.
// Hooks fire only for runs this call actually performs, so a refused
// claim never skews the in-flight accounting.
func observe(obs Observer, t *task.Task) bool {
	if obs == nil {
		return t.TryRun()
	}
	if !t.Claim() {
		return false
	}
	obs.WorkStarted()
	start := time.Now()
	t.RunClaimed()
	obs.WorkFinished(time.Since(start), t.Err())
	return true
}
