// Package queue provides the durable, crash-recoverable work queue of
// filesystem paths awaiting ingestion. Each path appears at most once and
// moves through a three-state lifecycle: pending -> processing -> done.
// Rows are never deleted; a file marked done is never handed out again.
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrEmpty is returned by ClaimNext when no pending paths exist.
var ErrEmpty = errors.New("queue: no pending files")

// Statuses of a queued file.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
)

// Queue is a SQLite-backed work queue. It is safe for concurrent use; claim
// atomicity is enforced by the database (single conditional UPDATE), not by
// callers.
type Queue struct {
	db *sql.DB
}

// New opens or creates the queue database at dbPath and initializes the
// schema. Parent directories are created if they do not exist. Initialization
// is idempotent and safe to run repeatedly.
func New(dbPath string) (*Queue, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create queue directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	// Single connection: claims serialize through the database, so a
	// concurrent claimer sees either the pending row or the processing row,
	// never both.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'pending',
		enqueued_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize queue schema: %w", err)
	}

	return &Queue{db: db}, nil
}

// Enqueue inserts path with status pending. A path already present, whatever
// its status, is left untouched: done files are not re-queued, and a pending
// or processing file is not duplicated.
func (q *Queue) Enqueue(ctx context.Context, path string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO files (path, status) VALUES (?, ?)`,
		path, StatusPending,
	)
	return err
}

// ClaimNext atomically selects the oldest pending path, marks it processing,
// and returns it. Returns ErrEmpty when nothing is pending. Two concurrent
// claimers never receive the same path: the select and the status transition
// are a single UPDATE statement.
func (q *Queue) ClaimNext(ctx context.Context) (string, error) {
	var path string
	err := q.db.QueryRowContext(ctx,
		`UPDATE files SET status = ?
		 WHERE path = (SELECT path FROM files WHERE status = ? ORDER BY rowid LIMIT 1)
		 RETURNING path`,
		StatusProcessing, StatusPending,
	).Scan(&path)
	if err == sql.ErrNoRows {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("claim next: %w", err)
	}
	return path, nil
}

// Complete marks path done. A path not present in the queue is tolerated:
// no rows affected is not an error.
func (q *Queue) Complete(ctx context.Context, path string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE files SET status = ? WHERE path = ?`,
		StatusDone, path,
	)
	return err
}

// PendingCount returns the number of paths still pending or processing.
// Used as a liveness signal, not for correctness.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM files WHERE status IN (?, ?)`,
		StatusPending, StatusProcessing,
	).Scan(&count)
	return count, err
}

// ResetProcessing moves all processing rows back to pending and returns how
// many were reset. Run at worker startup so files stranded mid-flight by a
// crash are picked up again.
func (q *Queue) ResetProcessing(ctx context.Context) (int, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE files SET status = ? WHERE status = ?`,
		StatusPending, StatusProcessing,
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Status returns the recorded status for path, or ErrEmpty if unknown.
func (q *Queue) Status(ctx context.Context, path string) (string, error) {
	var status string
	err := q.db.QueryRowContext(ctx,
		`SELECT status FROM files WHERE path = ?`, path,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrEmpty
	}
	return status, err
}

// Ping verifies the underlying database is reachable.
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close closes the database connection.
func (q *Queue) Close() error {
	return q.db.Close()
}
