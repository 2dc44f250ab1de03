package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// schema creates the events table on open. The table is append-only; there
// is no migration machinery here.
const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id        TEXT PRIMARY KEY,
	time      DATETIME NOT NULL,
	operation TEXT NOT NULL,
	actor     TEXT NOT NULL DEFAULT '',
	subject   TEXT NOT NULL DEFAULT '',
	provider  TEXT NOT NULL DEFAULT '',
	succeeded INTEGER NOT NULL,
	error     TEXT NOT NULL DEFAULT '',
	duration  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_time ON audit_events(time);
CREATE INDEX IF NOT EXISTS idx_audit_events_operation ON audit_events(operation);
`

// SQLiteRecorder persists audit events in a local SQLite database.
type SQLiteRecorder struct {
	db *sqlx.DB
}

// NewSQLiteRecorder opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	// WAL keeps readers cheap while the service appends.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	return &SQLiteRecorder{db: db}, nil
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// Record implements Recorder.
func (r *SQLiteRecorder) Record(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = NewEventID()
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, time, operation, actor, subject, provider,
			succeeded, error, duration
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Time, event.Operation, event.Actor, event.Subject,
		event.Provider, event.Succeeded, event.Error, int64(event.Duration),
	)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// Recent implements Recorder.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []Event
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, time, operation, actor, subject, provider,
		       succeeded, error, duration
		FROM audit_events
		ORDER BY time DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

// CountByOperation returns how many events exist per operation name.
func (r *SQLiteRecorder) CountByOperation(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT operation, COUNT(*) AS n
		FROM audit_events
		GROUP BY operation`)
	if err != nil {
		return nil, fmt.Errorf("count audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var op string
		var n int
		if err := rows.Scan(&op, &n); err != nil {
			return nil, fmt.Errorf("scan audit count: %w", err)
		}
		counts[op] = n
	}
	return counts, rows.Err()
}
