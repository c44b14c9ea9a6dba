// Package sem provides asynchronous coordination primitives: a counting
// semaphore whose acquisition never blocks a goroutine (Semaphore), and
// a producer/consumer collection with awaitable takes built on top of it
// (Collection). Both gate when work becomes runnable, independently of
// which scheduler runs it.
package sem
