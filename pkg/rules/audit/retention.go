package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls how long evaluation traces are kept.
type RetentionConfig struct {
	// MaxAge removes traces older than this duration. Zero disables
	// age-based pruning.
	MaxAge time.Duration

	// MaxRecords keeps at most this many traces, dropping the oldest.
	// Zero disables count-based pruning.
	MaxRecords int

	// PruneSchedule is a cron expression for automatic pruning
	// (e.g. "0 3 * * *" for daily at 3 AM). Empty disables scheduling.
	PruneSchedule string
}

// Pruner enforces retention limits on an audit storage backend.
type Pruner struct {
	storage Storage
	config  *RetentionConfig
	logger  *slog.Logger
}

// NewPruner creates a pruner over the given storage.
func NewPruner(storage Storage, config *RetentionConfig) *Pruner {
	if config == nil {
		config = &RetentionConfig{}
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "rules.audit.pruner"),
	}
}

// Prune applies the retention limits once and returns how many traces
// were deleted.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	deleted := 0

	if p.config.MaxAge > 0 {
		cutoff := time.Now().Add(-p.config.MaxAge)
		n, err := p.storage.DeleteBefore(ctx, cutoff)
		if err != nil {
			return deleted, fmt.Errorf("age-based pruning failed: %w", err)
		}
		deleted += n
	}

	if p.config.MaxRecords > 0 {
		n, err := p.storage.DeleteOldest(ctx, p.config.MaxRecords)
		if err != nil {
			return deleted, fmt.Errorf("count-based pruning failed: %w", err)
		}
		deleted += n
	}

	return deleted, nil
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for the given pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "rules.audit.scheduler"),
	}
}

// Start begins scheduled pruning. If no schedule is configured the
// scheduler does nothing. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.runPruning(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("audit retention scheduler started",
		"schedule", schedule,
		"max_age", s.pruner.config.MaxAge,
		"max_records", s.pruner.config.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runPruning executes one pruning cycle.
func (s *Scheduler) runPruning(ctx context.Context) {
	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled pruning completed, no traces deleted")
	}
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("audit retention scheduler stopped")
}
