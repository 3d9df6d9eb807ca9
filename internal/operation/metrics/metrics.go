// Package metrics exposes prometheus instruments for the operation feature.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Created       *prometheus.CounterVec
	StatusChanges *prometheus.CounterVec
	CreateLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgov_operations_created_total",
			Help: "Operations created, labeled by the status the engine assigned.",
		}, []string{"status"}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgov_operations_status_changes_total",
			Help: "Operation status changes by target status and outcome.",
		}, []string{"to_status", "outcome"}),
		CreateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsgov_operations_create_duration_seconds",
			Help:    "End-to-end latency of operation creation including the governance decision.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementCreated(status string) {
	if m == nil {
		return
	}
	m.Created.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementStatusChange(toStatus, outcome string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(toStatus, outcome).Inc()
}

func (m *Metrics) ObserveCreateLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.CreateLatency.Observe(d.Seconds())
}
