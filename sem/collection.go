package sem

import (
	"errors"
	"sync"

	"github.com/gammazero/deque"

	"github.com/NetPo4ki/go-sched/task"
)

// ErrInvalidState signals a concurrency-contract violation: the backing
// store rejected an operation the semaphore accounting said must
// succeed, e.g. an out-of-band consumer drained it behind the wrapper.
var ErrInvalidState = errors.New("sem: collection state out of sync with semaphore")

// Store is the pluggable backing collection behind a Collection. It must
// be safe for concurrent Add/Remove; the wrapper adds no locking of its
// own beyond the semaphore coordination. Add may reject an item (a
// capacity or shape constraint), which surfaces to the producer as
// ErrInvalidState without a permit being released.
type Store[T any] interface {
	// Add inserts item and reports whether the store accepted it.
	Add(item T) bool
	// Remove takes one item out, reporting false when the store is empty.
	Remove() (T, bool)
	// Len returns the current item count.
	Len() int
}

// fifoStore is the default Store: an unbounded FIFO queue.
type fifoStore[T any] struct {
	mu sync.Mutex
	q  deque.Deque[T]
}

func (f *fifoStore[T]) Add(item T) bool {
	f.mu.Lock()
	f.q.PushBack(item)
	f.mu.Unlock()
	return true
}

func (f *fifoStore[T]) Remove() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.q.Len() == 0 {
		var zero T
		return zero, false
	}
	return f.q.PopFront(), true
}

func (f *fifoStore[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.q.Len()
}

// Item is the future returned by Collection.Take. It settles with the
// taken value, or with an error when the take is canceled by disposal or
// hits an ErrInvalidState contract violation.
type Item[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newItem[T any]() *Item[T] { return &Item[T]{done: make(chan struct{})} }

func (i *Item[T]) settle(val T, err error) {
	i.val = val
	i.err = err
	close(i.done)
}

// Done returns a channel closed once the item settles.
func (i *Item[T]) Done() <-chan struct{} { return i.done }

// Value returns the taken value once settled. Calling it before Done is
// closed returns the zero value and no error.
func (i *Item[T]) Value() (T, error) {
	select {
	case <-i.done:
		return i.val, i.err
	default:
		var zero T
		return zero, nil
	}
}

// Wait blocks until the item settles and returns its outcome.
func (i *Item[T]) Wait() (T, error) {
	<-i.done
	return i.val, i.err
}

// Collection pairs a thread-safe Store with a Semaphore so consumers can
// await items without blocking. Every accepted Add releases exactly one
// permit and every Take consumes exactly one, keeping the semaphore's
// available count equal to the number of unclaimed stored items.
type Collection[T any] struct {
	store Store[T]
	sem   *Semaphore
}

// collectionCapacity bounds the internal semaphore. Adds beyond it fail
// with ErrOverflow, which in practice means the producers are unbounded
// and nobody is consuming.
const collectionCapacity = int(^uint(0) >> 1) // max int

// NewCollection creates an empty collection backed by an unbounded FIFO
// store.
func NewCollection[T any]() *Collection[T] {
	c, _ := NewCollectionStore[T](&fifoStore[T]{})
	return c
}

// NewCollectionStore creates a collection around a caller-supplied
// store, seeding the semaphore with the store's current length. It fails
// for a nil store.
func NewCollectionStore[T any](store Store[T]) (*Collection[T], error) {
	if store == nil {
		return nil, errors.New("sem: collection requires a store")
	}
	s, err := New(store.Len(), collectionCapacity)
	if err != nil {
		return nil, err
	}
	return &Collection[T]{store: store, sem: s}, nil
}

// Add inserts item and releases one permit. A store rejection fails with
// ErrInvalidState and releases nothing, preserving the 1:1 pairing of
// permits and items.
func (c *Collection[T]) Add(item T) error {
	if !c.store.Add(item) {
		return ErrInvalidState
	}
	return c.sem.Release()
}

// Take returns a future for the next item. With items available it is
// already settled; otherwise it settles when a matching Add arrives. The
// synchronous error is non-nil only when the collection is disposed.
func (c *Collection[T]) Take() (*Item[T], error) {
	w, err := c.sem.WaitAsync()
	if err != nil {
		return nil, err
	}
	it := newItem[T]()
	if w.Settled() {
		c.claim(it, w)
		return it, nil
	}
	go func() {
		<-w.Done()
		c.claim(it, w)
	}()
	return it, nil
}

// claim resolves it after the permit wait w has settled.
func (c *Collection[T]) claim(it *Item[T], w *task.Completion) {
	var zero T
	if err := w.Err(); err != nil {
		it.settle(zero, err)
		return
	}
	// A permit is only ever released after a successful Add, so the
	// store must have an item unless someone drained it out-of-band.
	v, ok := c.store.Remove()
	if !ok {
		it.settle(zero, ErrInvalidState)
		return
	}
	it.settle(v, nil)
}

// Len returns a best-effort snapshot of the store size. It may be stale
// under concurrent mutation; diagnostic only.
func (c *Collection[T]) Len() int { return c.store.Len() }

// Dispose disposes the internal semaphore, canceling pending takes with
// task.ErrCanceled. The store itself is left untouched. Idempotent.
func (c *Collection[T]) Dispose() { c.sem.Dispose() }
