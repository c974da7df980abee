// Package metrics exposes node-upgrader activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryankumar/node-upgrader/internal/upgrade"
	"github.com/aryankumar/node-upgrader/internal/util"
)

const namespace = "node_upgrader"

// Metrics holds the collectors of one process
type Metrics struct {
	registry *prometheus.Registry

	eventsTotal   *prometheus.CounterVec
	jobsCompleted *prometheus.CounterVec
	failures      *prometheus.CounterVec

	queue *queueMetrics
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "events_total",
				Help:      "Total number of reported events by kind",
			},
			[]string{"kind"},
		),
		jobsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "jobs_completed_total",
				Help:      "Total number of upgrade jobs that reached a terminal state, by state",
			},
			[]string{"state"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "failures_total",
				Help:      "Total number of failed operations, by failure class",
			},
			[]string{"class"},
		),
		queue: newQueueMetrics(),
	}

	m.registry.MustRegister(
		m.eventsTotal,
		m.jobsCompleted,
		m.failures,
	)
	m.queue.register(m.registry)

	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Reporter returns a reporter that records each event before passing it to next
func (m *Metrics) Reporter(next upgrade.Reporter) upgrade.Reporter {
	return upgrade.ReporterFunc(func(e upgrade.Event) {
		m.observe(e)
		if next != nil {
			next.Report(e)
		}
	})
}

func (m *Metrics) observe(e upgrade.Event) {
	m.eventsTotal.WithLabelValues(string(e.Kind)).Inc()

	if e.Kind == upgrade.EventCompleted {
		m.jobsCompleted.WithLabelValues(e.State.String()).Inc()
	}
	if e.IsError() {
		m.failures.WithLabelValues(failureClass(e.Err)).Inc()
	}
}

// failureClass maps an event error to a low-cardinality label.
// A nil error is a job the control plane itself reported as failed.
func failureClass(err error) string {
	switch {
	case err == nil:
		return "upgrade"
	case util.IsCredentialError(err):
		return "credential"
	case util.IsScanError(err):
		return "scan"
	case util.IsDispatchError(err):
		return "dispatch"
	case util.IsPollError(err):
		return "poll"
	default:
		return "other"
	}
}

// TrackLiveJobs exports the value of count as the live job gauge.
// It may be called once per Metrics.
func (m *Metrics) TrackLiveJobs(count func() int) error {
	return m.registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "live_jobs",
			Help:      "Number of dispatched upgrade jobs still being polled",
		},
		func() float64 { return float64(count()) },
	))
}
