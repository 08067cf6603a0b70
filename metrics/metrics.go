// ABOUTME: Prometheus metrics for audit, strength, and cascade operations
// ABOUTME: A nil *Metrics is valid and records nothing
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the graph consistency layer.
type Metrics struct {
	ActionsRecorded    prometheus.Counter
	Compensations      *prometheus.CounterVec
	AdjustmentOutcomes *prometheus.CounterVec
	Cascades           *prometheus.CounterVec
	DependentsDeleted  *prometheus.CounterVec
	CascadeDuration    prometheus.Histogram
}

// New registers every metric with reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_actions_recorded_total",
			Help:      "Total number of audit actions written",
		}),
		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_compensations_total",
			Help:      "Audit write failures by compensation outcome",
		}, []string{"outcome"}),
		AdjustmentOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strength_adjustments_total",
			Help:      "Adjustment calls by outcome (created, updated, unchanged, removed)",
		}, []string{"outcome"}),
		Cascades: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascades_total",
			Help:      "Cascading deletes by root type and outcome",
		}, []string{"root_type", "outcome"}),
		DependentsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_dependents_deleted_total",
			Help:      "Documents removed by cascade step",
		}, []string{"step"}),
		CascadeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cascade_duration_seconds",
			Help:      "Duration of cascading deletes",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		}),
	}
}

// IncrementActionsRecorded records a successful audit write.
func (m *Metrics) IncrementActionsRecorded() {
	if m == nil {
		return
	}
	m.ActionsRecorded.Inc()
}

// IncrementCompensation records an audit failure and whether the change was removed.
func (m *Metrics) IncrementCompensation(compensated bool) {
	if m == nil {
		return
	}
	outcome := "compensated"
	if !compensated {
		outcome = "orphaned"
	}
	m.Compensations.WithLabelValues(outcome).Inc()
}

// IncrementAdjustment records the outcome of a strength call.
func (m *Metrics) IncrementAdjustment(outcome string) {
	if m == nil {
		return
	}
	m.AdjustmentOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveCascade records one cascade. Call with time.Now() at its start.
func (m *Metrics) ObserveCascade(rootType, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Cascades.WithLabelValues(rootType, outcome).Inc()
	m.CascadeDuration.Observe(time.Since(start).Seconds())
}

// AddDependentsDeleted records n documents removed by step.
func (m *Metrics) AddDependentsDeleted(step string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.DependentsDeleted.WithLabelValues(step).Add(float64(n))
}
