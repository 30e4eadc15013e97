// Package metrics exposes Prometheus instrumentation for the rules engine.
//
// Two collector sets exist: EngineMetrics covers per-request evaluation
// (counts, durations, matched/skipped rules, truncations, conflicts), and
// StoreMetrics covers the rule store (reload counts and durations, cached
// rule gauge, skipped documents). Both register against an injected
// prometheus.Registry so tests can use isolated registries, and Handler
// serves any registry over HTTP in promhttp's standard format.
package metrics
