//go:build linux

package sched

import "golang.org/x/sys/unix"

// threadID returns the id of the OS thread the caller runs on. Only
// meaningful while the goroutine is locked to its thread.
func threadID() int { return unix.Gettid() }
