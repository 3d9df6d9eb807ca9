// Package metrics exposes prometheus instruments for the identity feature.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Logins    *prometheus.CounterVec
	Lifecycle *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgov_identity_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		Lifecycle: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsgov_identity_lifecycle_total",
			Help: "User lifecycle events by action.",
		}, []string{"action"}),
	}
}

// IncrementLogin records a login attempt outcome (success, invalid_credentials, blocked).
func (m *Metrics) IncrementLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// IncrementLifecycle records a user lifecycle action (created, blocked, reactivated).
func (m *Metrics) IncrementLifecycle(action string) {
	if m == nil {
		return
	}
	m.Lifecycle.WithLabelValues(action).Inc()
}
