// Package state persists run history in a local SQLite database so
// earlier runs can be listed and compared.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/ppiankov/tckrunner/internal/runner"
)

// RunRecord is a stored summary of one suite run.
type RunRecord struct {
	RunID       string
	Timestamp   time.Time
	TestsDir    string
	Pattern     string
	EvaluateURL string
	Workers     int
	Passed      int
	Failed      int
	CasePassed  int
	CaseFailed  int
	DurationMS  int64
}

// FailureRecord is one failed test preserved from a run.
type FailureRecord struct {
	RunID   string
	Dir     string
	File    string
	TestID  string
	Remarks string
}

// Store provides SQLite persistence for run history.
type Store struct {
	db *sql.DB
}

// Open initializes the history store and runs migrations.
// busy_timeout avoids "database locked" errors when a watch session
// and a manual run share the database.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		tests_dir TEXT NOT NULL,
		pattern TEXT NOT NULL DEFAULT '',
		evaluate_url TEXT NOT NULL,
		workers INTEGER NOT NULL DEFAULT 1,
		passed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		case_passed INTEGER NOT NULL DEFAULT 0,
		case_failed INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS failures (
		run_id TEXT NOT NULL,
		dir TEXT NOT NULL,
		file TEXT NOT NULL,
		test_id TEXT NOT NULL,
		remarks TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, dir, file, test_id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a run summary and its failed tests.
func (s *Store) RecordRun(ctx context.Context, report *runner.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (run_id, timestamp, tests_dir, pattern, evaluate_url, workers,
		passed, failed, case_passed, case_failed, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		report.Timestamp.UTC().Format(time.RFC3339Nano),
		report.TestsDir,
		report.Pattern,
		report.EvaluateURL,
		report.Workers,
		report.Passed,
		report.Failed,
		report.CasePassed,
		report.CaseFailed,
		report.TotalDuration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, fr := range report.Files {
		for _, o := range fr.Outcomes {
			if o.Passed {
				continue
			}
			_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO failures (run_id, dir, file, test_id, remarks)
			VALUES (?, ?, ?, ?, ?)
			`,
				report.RunID,
				runner.RelDir(report.TestsDir, o.File),
				runner.FileStem(o.File),
				o.TestID,
				o.Remarks,
			)
			if err != nil {
				return fmt.Errorf("insert failure: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Runs returns stored run summaries, newest first, up to limit.
// limit <= 0 returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT run_id, timestamp, tests_dir, pattern, evaluate_url, workers,
		passed, failed, case_passed, case_failed, duration_ms
	FROM runs
	ORDER BY timestamp DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var ts string
		if err := rows.Scan(&r.RunID, &ts, &r.TestsDir, &r.Pattern, &r.EvaluateURL, &r.Workers,
			&r.Passed, &r.Failed, &r.CasePassed, &r.CaseFailed, &r.DurationMS); err != nil {
			return nil, err
		}
		r.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Run returns one stored run by id.
func (s *Store) Run(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT run_id, timestamp, tests_dir, pattern, evaluate_url, workers,
		passed, failed, case_passed, case_failed, duration_ms
	FROM runs WHERE run_id = ?
	`, runID)

	var r RunRecord
	var ts string
	err := row.Scan(&r.RunID, &ts, &r.TestsDir, &r.Pattern, &r.EvaluateURL, &r.Workers,
		&r.Passed, &r.Failed, &r.CasePassed, &r.CaseFailed, &r.DurationMS)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q not found", runID)
	}
	if err != nil {
		return nil, err
	}
	r.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return &r, nil
}

// Failures returns the failed tests recorded for a run.
func (s *Store) Failures(ctx context.Context, runID string) ([]FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, dir, file, test_id, remarks
	FROM failures WHERE run_id = ?
	ORDER BY dir, file, test_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []FailureRecord
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.RunID, &f.Dir, &f.File, &f.TestID, &f.Remarks); err != nil {
			return nil, err
		}
		records = append(records, f)
	}
	return records, rows.Err()
}
