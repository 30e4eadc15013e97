package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"tillerhq/tiller/pkg/rules"
)

// MemoryStorage implements Storage with an in-memory map. It is intended
// for tests and ephemeral deployments; traces do not survive a restart.
type MemoryStorage struct {
	mu     sync.RWMutex
	traces map[string]*rules.EvaluationTrace
}

// NewMemoryStorage creates a new in-memory audit storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		traces: make(map[string]*rules.EvaluationTrace),
	}
}

// Store persists one evaluation trace in memory.
func (s *MemoryStorage) Store(ctx context.Context, trace *rules.EvaluationTrace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later caller mutations don't leak into storage.
	traceCopy := *trace
	s.traces[trace.RequestID] = &traceCopy
	return nil
}

// Get retrieves a trace by request ID.
func (s *MemoryStorage) Get(ctx context.Context, requestID string) (*rules.EvaluationTrace, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace, ok := s.traces[requestID]
	if !ok {
		return nil, false, nil
	}
	traceCopy := *trace
	return &traceCopy, true, nil
}

// Query returns traces matching the query, newest first.
func (s *MemoryStorage) Query(ctx context.Context, q *Query) ([]*rules.EvaluationTrace, error) {
	if q == nil {
		q = &Query{}
	}

	s.mu.RLock()
	var results []*rules.EvaluationTrace
	for _, trace := range s.traces {
		if q.Matches(trace) {
			traceCopy := *trace
			results = append(results, &traceCopy)
		}
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// Count returns the number of stored traces.
func (s *MemoryStorage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces), nil
}

// DeleteBefore removes traces older than the cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, trace := range s.traces {
		if trace.Timestamp.Before(cutoff) {
			delete(s.traces, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteOldest removes the oldest traces until at most keep remain.
func (s *MemoryStorage) DeleteOldest(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.traces) <= keep {
		return 0, nil
	}

	ordered := make([]*rules.EvaluationTrace, 0, len(s.traces))
	for _, trace := range s.traces {
		ordered = append(ordered, trace)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	toDelete := len(ordered) - keep
	for _, trace := range ordered[:toDelete] {
		delete(s.traces, trace.RequestID)
	}
	return toDelete, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}
