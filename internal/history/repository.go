// Package history provides access to the child_runs table recording every
// observed child termination.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run represents a single completed child run.
type Run struct {
	ID           string    `json:"id"`
	Command      string    `json:"command"`
	PID          int       `json:"pid"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	ExitCode     int       `json:"exit_code"`
	Clean        bool      `json:"clean"`
	RestartCount int       `json:"restart_count"`
	LaunchError  string    `json:"launch_error,omitempty"`
}

// Filter controls which runs List returns.
type Filter struct {
	CrashesOnly bool // only runs with a nonzero exit code
	Limit       int  // default 50, max 200
	Offset      int  // pagination offset
}

// Pagination bounds.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// ListResult contains the paginated run history.
type ListResult struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Repository defines the run-history operations.
type Repository interface {
	Record(ctx context.Context, run *Run) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores runs in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new run history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a completed run. The caller supplies the run ID; the runner
// assigns one per launch.
func (r *SQLiteRepository) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("recording run: id is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO child_runs (id, command, pid, started_at, ended_at, exit_code, clean, restart_count, launch_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.PID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.EndedAt.UTC().Format(time.RFC3339),
		run.ExitCode, boolToInt(run.Clean), run.RestartCount, run.LaunchError,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	return nil
}

// List returns runs ordered most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := ""
	if filter.CrashesOnly {
		where = " WHERE exit_code != 0"
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM child_runs"+where,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, command, pid, started_at, ended_at, exit_code, clean, restart_count, launch_error
		 FROM child_runs`+where+`
		 ORDER BY ended_at DESC, id
		 LIMIT ? OFFSET ?`,
		filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	runs := make([]Run, 0, filter.Limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return &ListResult{
		Runs:   runs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run                Run
		startedAt, endedAt string
		clean              int
	)
	if err := rows.Scan(
		&run.ID, &run.Command, &run.PID,
		&startedAt, &endedAt,
		&run.ExitCode, &clean, &run.RestartCount, &run.LaunchError,
	); err != nil {
		return Run{}, fmt.Errorf("scanning run row: %w", err)
	}

	// Timestamps are written by Record in a fixed format.
	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt) //nolint:errcheck // Format is controlled
	run.EndedAt, _ = time.Parse(time.RFC3339, endedAt)     //nolint:errcheck // Format is controlled
	run.Clean = clean == 1
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
