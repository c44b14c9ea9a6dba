//go:build !linux

package sched

// threadID is unavailable off Linux; affinity membership checks report
// incompatible and inline execution is skipped.
func threadID() int { return -1 }
