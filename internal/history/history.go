// Package history keeps a session-scoped log of completed optimization runs
// in SQLite. The default DSN is :memory:, so nothing touches disk unless the
// user points the log at a file.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    project TEXT NOT NULL,
    mode TEXT NOT NULL,
    regions TEXT NOT NULL,
    levels INTEGER NOT NULL,
    failed_levels INTEGER NOT NULL,
    best_objective REAL NOT NULL,
    elapsed_ms INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project);
`

// Entry summarizes one completed run.
type Entry struct {
	RunID         string
	SessionID     string
	Project       string
	Mode          string
	Regions       string
	Levels        int
	FailedLevels  int
	BestObjective float64
	Elapsed       time.Duration
	CreatedAt     time.Time
}

// Store is a run log backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) a run log at the given DSN.
func Open(dataSourceName string) (*Store, error) {
	if dataSourceName == "" {
		dataSourceName = ":memory:"
	}
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create run log schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Record appends one run to the log.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO runs (run_id, session_id, project, mode, regions, levels, failed_levels, best_objective, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.RunID,
		entry.SessionID,
		entry.Project,
		entry.Mode,
		entry.Regions,
		entry.Levels,
		entry.FailedLevels,
		entry.BestObjective,
		entry.Elapsed.Milliseconds(),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// List returns the most recent runs for a project, newest first.
func (s *Store) List(ctx context.Context, project string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT run_id, session_id, project, mode, regions, levels, failed_levels, best_objective, elapsed_ms, created_at
		FROM runs
		WHERE project = ?
		ORDER BY created_at DESC, run_id
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, project, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var elapsedMS int64
		if err := rows.Scan(
			&entry.RunID,
			&entry.SessionID,
			&entry.Project,
			&entry.Mode,
			&entry.Regions,
			&entry.Levels,
			&entry.FailedLevels,
			&entry.BestObjective,
			&elapsedMS,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		entry.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
