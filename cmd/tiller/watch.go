package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"tillerhq/tiller/pkg/cli"
	"tillerhq/tiller/pkg/rules/audit"
	"tillerhq/tiller/pkg/rules/store"
	"tillerhq/tiller/pkg/telemetry/metrics"
)

var watchFlags struct {
	metricsAddr string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch rule directories and reload on change",
	Long: `Watch the configured rule directories and reload the store whenever
rule documents change. Runs until interrupted.

Rapid bursts of file events are debounced into a single reload. A cron
rescan schedule, when configured, forces periodic full reloads to catch
changes filesystem notification missed.

With metrics enabled, a Prometheus endpoint is served at /metrics.

Examples:
  tiller watch
  tiller watch --metrics-listen :9464`,
	RunE: watchRules,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.metricsAddr, "metrics-listen", "", "override the metrics listen address")
}

func watchRules(cmd *cobra.Command, args []string) error {
	ctx := cli.SetupSignalHandler()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.logger.Slog()

	watcherCfg := &store.WatcherConfig{
		DebounceInterval: a.cfg.Rules.Watch.DebounceInterval,
		RescanSchedule:   a.cfg.Rules.Watch.RescanSchedule,
	}
	watcher, err := store.NewWatcher(a.store, watcherCfg, a.logger.Component("watcher"))
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	// Metrics endpoint
	metricsAddr := watchFlags.metricsAddr
	if metricsAddr == "" {
		metricsAddr = a.cfg.Metrics.ListenAddress
	}
	if a.registry != nil && metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(a.registry))
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			log.Info("serving metrics", slog.String("address", metricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		defer server.Close()
	}

	// Scheduled audit pruning
	if a.audit != nil && a.cfg.Audit.PruneSchedule != "" {
		retention := &audit.RetentionConfig{
			MaxAge:        time.Duration(a.cfg.Audit.RetentionDays) * 24 * time.Hour,
			MaxRecords:    a.cfg.Audit.MaxRecords,
			PruneSchedule: a.cfg.Audit.PruneSchedule,
		}
		scheduler := audit.NewScheduler(audit.NewPruner(a.audit, retention))
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("watch", err)
		}
		defer scheduler.Stop()
	}

	fmt.Printf("watching %d rule(s) across %d directories, press Ctrl-C to stop\n",
		a.store.Count(), len(a.store.Directories()))

	if err := watcher.Watch(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}
