package sched

// Option configures a scheduler at construction.
type Option func(*Options)

// Options holds construction-time settings shared by the scheduler
// strategies. Not every strategy consumes every field.
type Options struct {
	Observer Observer
	Affinity Affinity
}

func defaultOptions() Options { return Options{} }

// WithObserver attaches an Observer to the scheduler.
func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// WithAffinity sets the worker affinity capability of a PoolScheduler.
// The default is an OS-thread-lock affinity.
func WithAffinity(a Affinity) Option { return func(o *Options) { o.Affinity = a } }
