package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for classification runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Classification outcomes by status
	Classifications *prometheus.CounterVec

	// Confidence values replaced with 0.0
	DegradedConfidence prometheus.Counter

	// Rules degraded to absent because the oracle failed, by reason
	DegradedMatches *prometheus.CounterVec

	// Oracle calls by provider and outcome
	OracleCalls *prometheus.CounterVec

	// Oracle call latency by provider
	OracleLatency *prometheus.HistogramVec

	// Checklist reload attempts by outcome
	ChecklistReloads *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "triagem_classifications_total",
			Help: "Total classification runs by resulting status",
		}, []string{"status"}),

		DegradedConfidence: factory.NewCounter(prometheus.CounterOpts{
			Name: "triagem_degraded_confidence_total",
			Help: "Non-numeric or out-of-range confidence values replaced with 0.0",
		}),

		DegradedMatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "triagem_degraded_matches_total",
			Help: "Rules treated as absent because the semantic oracle failed",
		}, []string{"reason"}), // reason: "timeout", "error", "malformed", "unknown_candidate"

		OracleCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "triagem_oracle_calls_total",
			Help: "Semantic oracle calls by provider and outcome",
		}, []string{"provider", "outcome"}),

		OracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triagem_oracle_duration_seconds",
			Help:    "Duration of semantic oracle calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),

		ChecklistReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "triagem_checklist_reloads_total",
			Help: "Checklist reload attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure"
	}
}

// IncrementClassification records a run outcome.
func (m *Metrics) IncrementClassification(status string) {
	if m != nil {
		m.Classifications.WithLabelValues(status).Inc()
	}
}

// IncrementDegradedConfidence records a sanitized confidence value.
func (m *Metrics) IncrementDegradedConfidence() {
	if m != nil {
		m.DegradedConfidence.Inc()
	}
}

// IncrementDegradedMatch records a rule degraded by an oracle failure.
func (m *Metrics) IncrementDegradedMatch(reason string) {
	if m != nil {
		m.DegradedMatches.WithLabelValues(reason).Inc()
	}
}

// ObserveOracleCall records one oracle call.
func (m *Metrics) ObserveOracleCall(provider, outcome string, d time.Duration) {
	if m != nil {
		m.OracleCalls.WithLabelValues(provider, outcome).Inc()
		m.OracleLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// IncrementChecklistReload records a reload attempt.
func (m *Metrics) IncrementChecklistReload(outcome string) {
	if m != nil {
		m.ChecklistReloads.WithLabelValues(outcome).Inc()
	}
}

// WriteTextfile exports all metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
