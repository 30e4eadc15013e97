package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exported by Tiller.
const Namespace = "tiller"

// EngineMetrics tracks rule evaluation activity.
//
// Metrics:
//   - tiller_rules_evaluations_total: Total evaluations by outcome
//   - tiller_rules_evaluation_duration_seconds: Evaluation duration
//   - tiller_rules_matched: Rules matched per evaluation
//   - tiller_rules_skipped: Rules skipped per evaluation
//   - tiller_rules_truncated_total: Evaluations that dropped rules to fit the size cap
//   - tiller_rules_merge_conflicts_total: Duplicate-name collisions resolved during merge
type EngineMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	rulesMatched       prometheus.Histogram
	rulesSkipped       prometheus.Histogram
	truncatedTotal     prometheus.Counter
	mergeConflicts     prometheus.Counter
}

// NewEngineMetrics creates and registers engine metrics with the registry.
func NewEngineMetrics(registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "rules",
				Name:      "evaluations_total",
				Help:      "Total number of rule evaluations",
			},
			[]string{"outcome"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "rules",
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of rule evaluation in seconds",
				// Evaluations are in-memory and should stay well under 10ms.
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
		),

		rulesMatched: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "rules",
				Name:      "matched",
				Help:      "Number of rules matched per evaluation",
				Buckets:   prometheus.LinearBuckets(0, 5, 10),
			},
		),

		rulesSkipped: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "rules",
				Name:      "skipped",
				Help:      "Number of rules skipped per evaluation",
				Buckets:   prometheus.LinearBuckets(0, 5, 10),
			},
		),

		truncatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "rules",
				Name:      "truncated_total",
				Help:      "Total number of evaluations that dropped rules to fit the content size cap",
			},
		),

		mergeConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "rules",
				Name:      "merge_conflicts_total",
				Help:      "Total number of duplicate-name collisions resolved during merging",
			},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.rulesMatched,
		em.rulesSkipped,
		em.truncatedTotal,
		em.mergeConflicts,
	)

	return em
}

// RecordEvaluation records one completed evaluation.
func (em *EngineMetrics) RecordEvaluation(matched, skipped, conflicts int, truncated bool, duration time.Duration) {
	outcome := "complete"
	if truncated {
		outcome = "truncated"
		em.truncatedTotal.Inc()
	}

	em.evaluationsTotal.WithLabelValues(outcome).Inc()
	em.evaluationDuration.Observe(duration.Seconds())
	em.rulesMatched.Observe(float64(matched))
	em.rulesSkipped.Observe(float64(skipped))
	em.mergeConflicts.Add(float64(conflicts))
}
