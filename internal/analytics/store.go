// Package analytics persists page-view and interaction events in a
// local SQLite database. It replaces an earlier in-process event slice
// that lost data on every restart.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	path       TEXT NOT NULL DEFAULT '',
	referrer   TEXT NOT NULL DEFAULT '',
	created_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
`

// Event is one recorded interaction.
type Event struct {
	Type     string    `json:"type"`
	Path     string    `json:"path,omitempty"`
	Referrer string    `json:"referrer,omitempty"`
	TS       time.Time `json:"ts"`
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Type) == "" {
		return errors.New("analytics: event type is required")
	}
	return nil
}

// Store is a SQLite-backed event log.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the event database, creating the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("analytics: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("analytics: open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("analytics: ping db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("analytics: apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record appends one event.
func (s *Store) Record(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	ts := e.TS
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO events (event_type, path, referrer, created_ms) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(e.Type), e.Path, e.Referrer, ts.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("analytics: insert event: %w", err)
	}
	return nil
}

// Summary returns event counts per type.
func (s *Store) Summary(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT event_type, count(*) FROM events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("analytics: query summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := map[string]int64{}
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("analytics: scan summary: %w", err)
		}
		out[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: iterate summary: %w", err)
	}
	return out, nil
}
