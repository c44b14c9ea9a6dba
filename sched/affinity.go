package sched

import (
	"runtime"
	"sync"
)

// Affinity abstracts a platform thread-configuration requirement that
// certain work carries (the reason a PoolScheduler owns dedicated workers
// instead of borrowing from a generic pool). Pin configures the calling
// worker; Compatible answers whether the current caller is executing on a
// configured worker and is the predicate behind inline execution.
type Affinity interface {
	// Pin configures the calling goroutine's thread for the pool and
	// returns the matching teardown. Workers call Pin once at startup
	// and the teardown when they exit.
	Pin() (unpin func(), err error)

	// Compatible reports whether the calling goroutine currently runs on
	// a pinned worker thread.
	Compatible() bool
}

// NoAffinity is the trivial capability: no thread configuration, and
// every caller is considered compatible. With it the pool behaves as a
// plain dedicated worker pool.
type NoAffinity struct{}

func (NoAffinity) Pin() (func(), error) { return func() {}, nil }
func (NoAffinity) Compatible() bool     { return true }

// OSThreadAffinity pins each worker to its OS thread and keeps a
// per-instance registry of pinned thread ids. Compatible consults the
// registry, so it identifies worker threads without relying on goroutine
// identity. On platforms where the thread id cannot be read, Compatible
// is always false and inline execution simply never happens.
type OSThreadAffinity struct {
	mu   sync.Mutex
	tids map[int]struct{}
}

func (a *OSThreadAffinity) Pin() (func(), error) {
	runtime.LockOSThread()
	tid := threadID()
	if tid < 0 {
		return runtime.UnlockOSThread, nil
	}
	a.mu.Lock()
	if a.tids == nil {
		a.tids = make(map[int]struct{})
	}
	a.tids[tid] = struct{}{}
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.tids, tid)
		a.mu.Unlock()
		runtime.UnlockOSThread()
	}, nil
}

func (a *OSThreadAffinity) Compatible() bool {
	tid := threadID()
	if tid < 0 {
		return false
	}
	a.mu.Lock()
	_, ok := a.tids[tid]
	a.mu.Unlock()
	return ok
}
