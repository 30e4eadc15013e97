package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tillerhq/tiller/pkg/rules"
)

// SQLiteConfig contains configuration for the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10.
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true.
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage using SQLite. Traces persist across
// restarts; suitable for single-instance deployments.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// schema creates the traces table. The full trace is stored as a JSON
// document; the indexed columns exist for query filters and retention.
const schema = `
CREATE TABLE IF NOT EXISTS evaluation_traces (
	request_id  TEXT PRIMARY KEY,
	session_id  TEXT,
	timestamp   INTEGER NOT NULL,
	total_size  INTEGER NOT NULL,
	trace       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_traces_timestamp ON evaluation_traces(timestamp);
CREATE INDEX IF NOT EXISTS idx_traces_session ON evaluation_traces(session_id);
`

// NewSQLiteStorage creates a SQLite audit backend, initializing the schema
// and enabling WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 10
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "rules.audit.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// initialize sets pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}
	return nil
}

// Store persists one evaluation trace.
func (s *SQLiteStorage) Store(ctx context.Context, trace *rules.EvaluationTrace) error {
	payload, err := json.Marshal(trace)
	if err != nil {
		return NewStorageError("sqlite", "marshal", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluation_traces (request_id, session_id, timestamp, total_size, trace)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO UPDATE SET
			session_id = excluded.session_id,
			timestamp = excluded.timestamp,
			total_size = excluded.total_size,
			trace = excluded.trace`,
		trace.RequestID, trace.SessionID, trace.Timestamp.UnixNano(), trace.TotalSize, string(payload),
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Get retrieves a trace by request ID.
func (s *SQLiteStorage) Get(ctx context.Context, requestID string) (*rules.EvaluationTrace, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT trace FROM evaluation_traces WHERE request_id = ?", requestID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, NewStorageError("sqlite", "get", err)
	}

	trace, err := unmarshalTrace(payload)
	if err != nil {
		return nil, false, err
	}
	return trace, true, nil
}

// Query returns traces matching the query, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, q *Query) ([]*rules.EvaluationTrace, error) {
	if q == nil {
		q = &Query{}
	}

	query := "SELECT trace FROM evaluation_traces WHERE 1=1"
	var args []interface{}

	if q.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, q.SessionID)
	}
	if !q.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, q.Since.UnixNano())
	}
	if !q.Until.IsZero() {
		query += " AND timestamp < ?"
		args = append(args, q.Until.UnixNano())
	}

	query += " ORDER BY timestamp DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var results []*rules.EvaluationTrace
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		trace, err := unmarshalTrace(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, trace)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "iterate", err)
	}
	return results, nil
}

// Count returns the number of stored traces.
func (s *SQLiteStorage) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluation_traces").Scan(&count)
	if err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// DeleteBefore removes traces older than the cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM evaluation_traces WHERE timestamp < ?", cutoff.UnixNano())
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_before", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_before", err)
	}
	return int(affected), nil
}

// DeleteOldest removes the oldest traces until at most keep remain.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM evaluation_traces WHERE request_id IN (
			SELECT request_id FROM evaluation_traces
			ORDER BY timestamp DESC
			LIMIT -1 OFFSET ?
		)`, keep)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_oldest", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_oldest", err)
	}
	return int(affected), nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	return nil
}

func unmarshalTrace(payload string) (*rules.EvaluationTrace, error) {
	var trace rules.EvaluationTrace
	if err := json.Unmarshal([]byte(payload), &trace); err != nil {
		return nil, NewStorageError("sqlite", "unmarshal", err)
	}
	return &trace, nil
}
