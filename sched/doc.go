// Package sched provides pluggable execution strategies for units of work.
// A Scheduler decides where and when a task.Task runs: inline on the
// calling goroutine (CurrentThreadScheduler), serialized onto a single
// run loop (LoopScheduler), or load-balanced across a fixed pool of
// dedicated, affinity-pinned workers (PoolScheduler).
package sched
