// Package logging provides structured logging for the Tiller rules engine,
// built on log/slog.
//
// A Logger wraps an slog.Logger configured with a level and an output
// format (JSON for machine consumption, text for development, console for
// human-readable CLI output). Components obtain child loggers with a
// stable "component" attribute:
//
//	logger, _ := logging.New(&logging.Config{Level: "info", Format: logging.FormatJSON})
//	storeLog := logger.Component("rules.store")
//	storeLog.Info("rule store reloaded", "loaded", 12)
package logging
