package audit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func seedTraces(t *testing.T, s Storage, n int, spacing time.Duration, start time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		trace := testTrace(fmt.Sprintf("req-%d", i), "sess", start.Add(time.Duration(i)*spacing))
		if err := s.Store(context.Background(), trace); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPruner_MaxAge(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	// 5 traces, one per hour, oldest 5h ago.
	seedTraces(t, s, 5, time.Hour, time.Now().Add(-5*time.Hour))

	pruner := NewPruner(s, &RetentionConfig{MaxAge: 150 * time.Minute})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v, want nil", err)
	}

	// Traces older than 2.5h: the ones at 5h, 4h, and 3h.
	if deleted != 3 {
		t.Errorf("Prune() = %d, want 3", deleted)
	}
	if n, _ := s.Count(context.Background()); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestPruner_MaxRecords(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	seedTraces(t, s, 10, time.Minute, time.Now().Add(-time.Hour))

	pruner := NewPruner(s, &RetentionConfig{MaxRecords: 4})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v, want nil", err)
	}

	if deleted != 6 {
		t.Errorf("Prune() = %d, want 6", deleted)
	}
	if n, _ := s.Count(context.Background()); n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
}

func TestPruner_NoLimitsIsNoop(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	seedTraces(t, s, 3, time.Minute, time.Now().Add(-time.Hour))

	deleted, err := NewPruner(s, nil).Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v, want nil", err)
	}
	if deleted != 0 {
		t.Errorf("Prune() with no limits = %d, want 0", deleted)
	}
}

func TestScheduler_NoScheduleConfigured(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	scheduler := NewScheduler(NewPruner(s, &RetentionConfig{MaxRecords: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() with empty schedule error = %v, want nil", err)
	}
	scheduler.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	scheduler := NewScheduler(NewPruner(s, &RetentionConfig{PruneSchedule: "not a cron line"}))

	if err := scheduler.Start(context.Background()); err == nil {
		t.Fatal("Start() with invalid schedule error = nil, want error")
	}
}

func TestScheduler_StartAndStop(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	scheduler := NewScheduler(NewPruner(s, &RetentionConfig{
		MaxRecords:    1,
		PruneSchedule: "0 3 * * *",
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v, want nil", err)
	}
	scheduler.Stop()
	// Stop is idempotent.
	scheduler.Stop()
}
