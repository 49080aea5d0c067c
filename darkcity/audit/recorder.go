// Package audit persists a local, queryable trail of notable game events.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one recorded game occurrence. Details is an arbitrary payload
// serialized to JSON at write time.
type Event struct {
	Kind      string
	ActorID   string
	Details   map[string]any
	CreatedAt time.Time
}

// Recorder persists events. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Event) error
	Close() error
}

// NoopRecorder discards everything. Used when auditing is disabled.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, Event) error { return nil }
func (NoopRecorder) Close() error                        { return nil }

// SQLiteRecorder appends events to a local sqlite file.
type SQLiteRecorder struct {
	db *sql.DB
}

func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_events(actor_id, created_at);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init audit schema: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Record(ctx context.Context, e Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal event details: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_events (kind, actor_id, details, created_at) VALUES (?, ?, ?, ?)`,
		e.Kind, e.ActorID, string(details), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
