package otel

import "time"

// Nop is a no-op implementation of the sched.Observer interface.
// It serves as a placeholder for an OpenTelemetry-backed observer
// without adding dependencies.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) WorkScheduled()                    {}
func (*Nop) WorkStarted()                      {}
func (*Nop) WorkFinished(time.Duration, error) {}
func (*Nop) SchedulerClosed(int64)             {}
