package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authorization gateway.
type Metrics struct {
	// Mutation outcomes by entity kind and outcome
	Decisions *prometheus.CounterVec

	// End-to-end mutation latency including lock wait and persistence
	ApplyLatency prometheus.Histogram

	// Audit trail reads
	AuditQueries prometheus.Counter
}

// New creates a Metrics instance with all gateway metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "labtrace_gateway_decisions_total",
			Help: "Total mutation decisions by entity kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "allowed", "denied_permission", "denied_transition", "error"

		ApplyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "labtrace_gateway_apply_duration_seconds",
			Help:    "Duration of gated mutations including lock wait and persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		AuditQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "labtrace_gateway_audit_queries_total",
			Help: "Total audit trail queries served",
		}),
	}
}

// IncDecision records a mutation decision outcome.
func (m *Metrics) IncDecision(kind, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveApply records the duration of a gated mutation.
func (m *Metrics) ObserveApply(d time.Duration) {
	if m != nil {
		m.ApplyLatency.Observe(d.Seconds())
	}
}

// IncAuditQuery records an audit trail read.
func (m *Metrics) IncAuditQuery() {
	if m != nil {
		m.AuditQueries.Inc()
	}
}
