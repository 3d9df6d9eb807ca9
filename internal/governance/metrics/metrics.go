// Package metrics provides observability for the governance module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the decision engine.
type Metrics struct {
	// Decision outcomes by verdict and action
	DecisionOutcome *prometheus.CounterVec

	// Context gathering latencies by source
	ContextLatency *prometheus.HistogramVec

	// Overall decision latency
	DecideLatency prometheus.Histogram
}

// New creates a Metrics instance with all governance metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgov_governance_decisions_total",
			Help: "Total governance decisions by verdict and action",
		}, []string{"verdict", "action"}), // verdict: "blocked", "requires_validation", "approved"

		ContextLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsgov_governance_context_duration_seconds",
			Help:    "Duration of decision context gathering by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}), // source: "history"

		DecideLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "opsgov_governance_decide_duration_seconds",
			Help:    "Duration of full decision evaluation including context gathering",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementOutcome records a decision verdict.
func (m *Metrics) IncrementOutcome(verdict, action string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(verdict, action).Inc()
	}
}

// ObserveContextLatency records the duration of fetching one context source.
func (m *Metrics) ObserveContextLatency(source string, d time.Duration) {
	if m != nil {
		m.ContextLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// ObserveDecideLatency records the total decision duration.
func (m *Metrics) ObserveDecideLatency(d time.Duration) {
	if m != nil {
		m.DecideLatency.Observe(d.Seconds())
	}
}
