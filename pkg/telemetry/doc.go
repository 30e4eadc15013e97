// Package telemetry groups the observability subpackages for Tiller.
//
// # Components
//
//   - logging: structured logging built on log/slog
//   - metrics: Prometheus metrics for the engine and store
//
// Both subpackages are optional at the call sites that use them: the
// engine and store run without a logger or metrics attached, and the
// tiller command wires them in based on configuration.
package telemetry
