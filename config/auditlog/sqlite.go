package auditlog

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DBFileName is the audit database file inside the config directory.
const DBFileName = "audit.db"

const auditSchema = `
CREATE TABLE IF NOT EXISTS job_events (
	id        INTEGER PRIMARY KEY,
	kind      TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	job_kind  TEXT NOT NULL DEFAULT '',
	instance  TEXT NOT NULL DEFAULT '',
	branch    TEXT NOT NULL DEFAULT '',
	message   TEXT NOT NULL DEFAULT '',
	level     TEXT NOT NULL DEFAULT 'info'
);

CREATE INDEX IF NOT EXISTS idx_job_events_instance_ts ON job_events(instance, timestamp DESC);
`

const maxQueryLimit = 500

// tsLayout is fixed width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteLogger is a Logger backed by a SQLite database.
type SQLiteLogger struct {
	db *sql.DB
}

// Open opens the audit database inside configDir.
func Open(configDir string) (*SQLiteLogger, error) {
	return NewSQLiteLogger(filepath.Join(configDir, DBFileName))
}

// NewSQLiteLogger opens (or creates) a SQLite database at dbPath, runs the
// schema, and returns a ready-to-use logger.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteLogger(dbPath string) (*SQLiteLogger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db for audit log: %w", err)
	}
	// A single connection keeps ":memory:" databases shared between calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run audit log schema: %w", err)
	}

	return &SQLiteLogger{db: db}, nil
}

// Emit inserts an audit event. A zero Timestamp is set to time.Now(). Emit is
// synchronous and safe to call from the bubbletea Update goroutine; write
// failures are dropped.
func (l *SQLiteLogger) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	level := e.Level
	if level == "" {
		level = "info"
	}

	const q = `
		INSERT INTO job_events (kind, timestamp, job_kind, instance, branch, message, level)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, _ = l.db.Exec(q,
		string(e.Kind),
		auditFormatTime(e.Timestamp),
		e.JobKind,
		e.Instance,
		e.Branch,
		e.Message,
		level,
	)
}

// Query returns events matching the filter, ordered newest-first.
// Limit is capped at 500.
func (l *SQLiteLogger) Query(f QueryFilter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	var conditions []string
	var args []any

	if f.Instance != "" {
		conditions = append(conditions, "instance = ?")
		args = append(args, f.Instance)
	}
	if f.JobKind != "" {
		conditions = append(conditions, "job_kind = ?")
		args = append(args, f.JobKind)
	}
	if len(f.Kinds) > 0 {
		placeholders := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		conditions = append(conditions, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}
	if !f.After.IsZero() {
		conditions = append(conditions, "timestamp > ?")
		args = append(args, auditFormatTime(f.After))
	}

	q := `SELECT id, kind, timestamp, job_kind, instance, branch, message, level FROM job_events`
	if len(conditions) > 0 {
		q += " WHERE " + strings.Join(conditions, " AND ")
	}
	q += fmt.Sprintf(" ORDER BY timestamp DESC, id DESC LIMIT %d", limit)

	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(
			&e.ID,
			(*string)(&e.Kind),
			&ts,
			&e.JobKind,
			&e.Instance,
			&e.Branch,
			&e.Message,
			&e.Level,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Timestamp = auditParseTime(ts)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Close releases the database connection.
func (l *SQLiteLogger) Close() error {
	return l.db.Close()
}

func auditFormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(tsLayout)
}

func auditParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
