package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"tillerhq/tiller/pkg/cli"
	"tillerhq/tiller/pkg/config"
	"tillerhq/tiller/pkg/rules/audit"
	"tillerhq/tiller/pkg/rules/engine"
	"tillerhq/tiller/pkg/rules/parser"
	"tillerhq/tiller/pkg/rules/store"
	"tillerhq/tiller/pkg/telemetry/logging"
	"tillerhq/tiller/pkg/telemetry/metrics"
)

// app bundles the wired components a command needs, plus the handles
// that must be closed when the command finishes.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	store    *store.Store
	engine   *engine.Engine
	audit    audit.Storage
	registry *prometheus.Registry
}

// newApp loads configuration, wires the engine, and performs the
// initial rule load. Callers must invoke Close when done.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}

	logCfg := &logging.Config{
		Level:     cfg.Logging.Level,
		Format:    logging.LogFormat(cfg.Logging.Format),
		AddSource: cfg.Logging.AddSource,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("logging", err.Error())
	}
	logger.SetDefault()

	a := &app{cfg: cfg, logger: logger}

	resolver := parser.NewReferenceResolver(cfg.Rules.References.AllowedDirs).
		WithMaxExpansions(cfg.Rules.References.MaxExpansions)
	p := parser.NewParser().
		WithMaxDocumentSize(cfg.Rules.MaxDocumentSize).
		WithResolver(resolver)

	storeCfg := &store.Config{
		GlobalDir:         cfg.Rules.GlobalDir,
		UserDir:           cfg.Rules.UserDir,
		ProjectDir:        cfg.Rules.ProjectDir,
		AllowedExtensions: cfg.Rules.AllowedExtensions,
	}
	a.store = store.New(storeCfg, p, logger.Component("store"))

	opts := []engine.Option{}

	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, engine.WithMetrics(metrics.NewEngineMetrics(a.registry)))
		a.store.WithMetrics(metrics.NewStoreMetrics(a.registry))
	}

	auditStorage, err := openAuditStorage(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if auditStorage != nil {
		a.audit = auditStorage
		opts = append(opts, engine.WithAuditStorage(auditStorage))
	}

	engineCfg := &engine.Config{MaxContentSize: cfg.Rules.MaxContentSize}
	a.engine = engine.New(a.store, engineCfg, logger.Component("engine"), opts...)

	result, err := a.store.Reload(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	if len(result.Skipped) > 0 {
		logger.Slog().Warn("some rule documents were skipped",
			slog.Int("skipped", len(result.Skipped)),
		)
	}

	return a, nil
}

// openAuditStorage returns the configured audit backend, or nil when
// auditing is disabled.
func openAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "memory":
		return audit.NewMemoryStorage(), nil
	case "sqlite":
		sqliteCfg := audit.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Audit.Path
		return audit.NewSQLiteStorage(sqliteCfg)
	default:
		return nil, nil
	}
}

// Close releases the app's storage handles.
func (a *app) Close() {
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.logger.Slog().Warn("closing audit storage", slog.Any("error", err))
		}
	}
}
