// Package history keeps a SQLite ledger of finished jobs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"reelfit/internal/model"
)

// Store persists job outcomes.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one recorded outcome.
type Entry struct {
	ID          int64
	JobID       string
	Source      string
	Platform    string
	Verdict     model.Verdict
	FailureKind model.FailureKind
	Detail      string
	Bitrate     int64
	SizeBytes   int64
	Attempts    int
	OutputPath  string
	FinishedAt  time.Time
}

// Open creates or opens the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	// Pragmas in the DSN apply to every pooled connection.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Workers record concurrently; one writer connection serializes them.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path is the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends o to the ledger.
func (s *Store) Record(ctx context.Context, o model.Outcome) error {
	finished := o.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (
            job_id, source, platform, verdict, failure_kind, detail,
            bitrate_bps, size_bytes, attempts, output_path, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.JobID,
		o.Source,
		o.Platform,
		string(o.Verdict),
		nullable(string(o.FailureKind)),
		nullable(o.Detail),
		o.Bitrate,
		o.SizeBytes,
		o.Attempts,
		nullable(o.Output),
		finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, source, platform, verdict, failure_kind, detail,
            bitrate_bps, size_bytes, attempts, output_path, finished_at
        FROM outcomes ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                      Entry
			verdict, finished      string
			kind, detail, outputNS sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.JobID, &e.Source, &e.Platform, &verdict, &kind, &detail,
			&e.Bitrate, &e.SizeBytes, &e.Attempts, &outputNS, &finished); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		e.Verdict = model.Verdict(verdict)
		e.FailureKind = model.FailureKind(kind.String)
		e.Detail = detail.String
		e.OutputPath = outputNS.String
		if t, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			e.FinishedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
