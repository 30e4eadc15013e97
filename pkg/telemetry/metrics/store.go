package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks rule store activity.
//
// Metrics:
//   - tiller_store_reloads_total: Total store reloads by result
//   - tiller_store_reload_duration_seconds: Reload duration
//   - tiller_store_rules: Currently cached rules by scope
//   - tiller_store_skipped_documents_total: Documents skipped during scans
type StoreMetrics struct {
	reloadsTotal    *prometheus.CounterVec
	reloadDuration  prometheus.Histogram
	cachedRules     *prometheus.GaugeVec
	skippedDocument prometheus.Counter
}

// NewStoreMetrics creates and registers store metrics with the registry.
func NewStoreMetrics(registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "reloads_total",
				Help:      "Total number of rule store reloads",
			},
			[]string{"result"},
		),

		reloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "reload_duration_seconds",
				Help:      "Duration of rule store reloads in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
		),

		cachedRules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "rules",
				Help:      "Number of rules currently cached, by scope",
			},
			[]string{"scope"},
		),

		skippedDocument: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "skipped_documents_total",
				Help:      "Total number of rule documents skipped during directory scans",
			},
		),
	}

	registry.MustRegister(
		sm.reloadsTotal,
		sm.reloadDuration,
		sm.cachedRules,
		sm.skippedDocument,
	)

	return sm
}

// RecordReload records one store reload.
func (sm *StoreMetrics) RecordReload(err error, skipped int, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	sm.reloadsTotal.WithLabelValues(result).Inc()
	sm.reloadDuration.Observe(duration.Seconds())
	sm.skippedDocument.Add(float64(skipped))
}

// SetCachedRules updates the cached rule gauge for one scope.
func (sm *StoreMetrics) SetCachedRules(scope string, count int) {
	sm.cachedRules.WithLabelValues(scope).Set(float64(count))
}
