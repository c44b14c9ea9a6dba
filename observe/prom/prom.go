// Package prom exports scheduler activity as Prometheus metrics.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer implements sched.Observer on top of prometheus collectors.
// Register it on any scheduler via sched.WithObserver.
type Observer struct {
	scheduled prometheus.Counter
	inFlight  prometheus.Gauge
	finished  *prometheus.CounterVec
	duration  prometheus.Histogram
	closed    prometheus.Counter
}

// New creates an Observer whose collectors are registered with reg.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		scheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gosched",
			Name:      "work_scheduled_total",
			Help:      "Tasks accepted by the scheduler.",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gosched",
			Name:      "work_in_flight",
			Help:      "Tasks currently executing.",
		}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gosched",
			Name:      "work_finished_total",
			Help:      "Tasks finished, by result.",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gosched",
			Name:      "work_duration_seconds",
			Help:      "Task run duration.",
			Buckets:   prometheus.DefBuckets,
		}),
		closed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gosched",
			Name:      "scheduler_closed_total",
			Help:      "Scheduler shutdowns observed.",
		}),
	}
}

// WorkScheduled counts an accepted task.
func (o *Observer) WorkScheduled() { o.scheduled.Inc() }

// WorkStarted marks a task in flight.
func (o *Observer) WorkStarted() { o.inFlight.Inc() }

// WorkFinished records the task outcome and run duration.
func (o *Observer) WorkFinished(d time.Duration, err error) {
	o.inFlight.Dec()
	o.duration.Observe(d.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.finished.WithLabelValues(result).Inc()
}

// SchedulerClosed counts a completed scheduler shutdown.
func (o *Observer) SchedulerClosed(int64) { o.closed.Inc() }
