package audit

import (
	"context"
	"time"

	"tillerhq/tiller/pkg/rules"
)

// Storage persists and queries evaluation traces.
type Storage interface {
	// Store persists one evaluation trace.
	Store(ctx context.Context, trace *rules.EvaluationTrace) error

	// Get retrieves a trace by request ID.
	// Returns false if no trace with that ID exists.
	Get(ctx context.Context, requestID string) (*rules.EvaluationTrace, bool, error)

	// Query returns traces matching the query, newest first.
	Query(ctx context.Context, q *Query) ([]*rules.EvaluationTrace, error)

	// Count returns the total number of stored traces.
	Count(ctx context.Context) (int, error)

	// DeleteBefore removes traces older than the cutoff and returns how
	// many were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	// DeleteOldest removes the oldest traces until at most keep remain,
	// returning how many were deleted.
	DeleteOldest(ctx context.Context, keep int) (int, error)

	// Close releases backend resources.
	Close() error
}

// Query filters trace lookups. Zero values mean "no constraint".
type Query struct {
	// SessionID restricts results to one session.
	SessionID string

	// Since restricts results to traces at or after this time.
	Since time.Time

	// Until restricts results to traces before this time.
	Until time.Time

	// Limit caps the number of results. Zero means no cap.
	Limit int
}

// Matches reports whether a trace satisfies the query's filters.
func (q *Query) Matches(trace *rules.EvaluationTrace) bool {
	if q.SessionID != "" && trace.SessionID != q.SessionID {
		return false
	}
	if !q.Since.IsZero() && trace.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !trace.Timestamp.Before(q.Until) {
		return false
	}
	return true
}
