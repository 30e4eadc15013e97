package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// WatcherConfig configures the store watcher.
type WatcherConfig struct {
	// DebounceInterval is how long to wait after the last file event
	// before triggering a reload. Default: 250ms.
	DebounceInterval time.Duration

	// RescanSchedule is an optional cron expression for periodic full
	// rescans, catching changes fsnotify misses (network mounts, mass
	// edits). Empty disables scheduled rescans.
	RescanSchedule string
}

// DefaultWatcherConfig returns the default watcher configuration.
func DefaultWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		DebounceInterval: 250 * time.Millisecond,
	}
}

// Watcher keeps a store's cache in sync with external edits to its rule
// directories. File events from fsnotify are debounced into full store
// reloads; an optional cron schedule adds periodic rescans as a fallback.
type Watcher struct {
	store    *Store
	config   *WatcherConfig
	watcher  *fsnotify.Watcher
	cron     *cron.Cron
	debounce *debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher over the store's configured directories.
func NewWatcher(s *Store, config *WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if config == nil {
		config = DefaultWatcherConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	if config.RescanSchedule != "" {
		if _, err := cron.ParseStandard(config.RescanSchedule); err != nil {
			return nil, fmt.Errorf("invalid rescan schedule %q: %w", config.RescanSchedule, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		store:    s,
		config:   config,
		watcher:  fsw,
		cron:     cron.New(),
		debounce: newDebouncer(config.DebounceInterval),
		logger:   logger.With("component", "rules.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until the context is cancelled or
// Stop is called. Each debounced event batch triggers a full store reload.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	for _, dir := range w.store.config.Directories() {
		if err := w.addDirectory(dir); err != nil {
			return fmt.Errorf("failed to watch rule directory: %w", err)
		}
	}

	if w.config.RescanSchedule != "" {
		_, err := w.cron.AddFunc(w.config.RescanSchedule, func() {
			w.logger.Debug("scheduled rescan triggered")
			w.reload(ctx)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule rescan: %w", err)
		}
		w.cron.Start()
		defer w.cron.Stop()
	}

	w.logger.Info("rule watcher started",
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
		"rescan_schedule", w.config.RescanSchedule,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rule watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("rule watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcess(event) {
				continue
			}

			w.logger.Debug("rule file event", "path", event.Name, "op", event.Op.String())
			w.debounce.trigger(func() {
				w.reload(ctx)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching despite transient errors.
			w.logger.Error("rule watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.stop()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) reload(ctx context.Context) {
	if _, err := w.store.Reload(ctx); err != nil {
		w.logger.Error("rule reload failed", "error", err)
	}
}

// shouldProcess filters events down to relevant changes on rule documents.
func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return w.store.hasAllowedExtension(event.Name)
}

// addDirectory registers dir and its subdirectories with fsnotify.
// A missing directory is skipped; it may be created later, in which case
// a scheduled rescan or restart picks it up.
func (w *Watcher) addDirectory(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		w.logger.Debug("rule directory does not exist, not watching", "dir", dir)
		return nil
	}

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		w.logger.Debug("watching rule directory", "path", path)
		return nil
	})
}

// debouncer coalesces bursts of triggers into a single callback after a
// quiet interval.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopCh   chan struct{}
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
		}

		d.mu.Lock()
		cb := d.callback
		d.mu.Unlock()

		if cb != nil {
			cb()
		}
	})
}

func (d *debouncer) stop() {
	close(d.stopCh)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
