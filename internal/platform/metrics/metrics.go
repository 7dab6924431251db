// Package metrics exposes Prometheus counters for the auth endpoints.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// AuthMetrics counts auth operations by operation name and outcome.
type AuthMetrics struct {
	operations *prometheus.CounterVec
}

// NewAuthMetrics creates the counters and registers them with reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "petserver",
			Name:      "auth_operations_total",
			Help:      "Auth operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations)
	}
	return m
}

// Observe increments the counter for operation and outcome. A nil receiver is a no-op.
func (m *AuthMetrics) Observe(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// Counter returns the counter for operation and outcome.
func (m *AuthMetrics) Counter(operation, outcome string) prometheus.Counter {
	return m.operations.WithLabelValues(operation, outcome)
}
