// Package task defines the unit of work executed by schedulers.
// A Task is a deferred computation that runs at most once and settles
// into exactly one terminal state: succeeded, faulted, or canceled.
package task
