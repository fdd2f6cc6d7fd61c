package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// NowUTC returns the current UTC time as an ISO 8601 string, the
// timestamp format the ledger stores.
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

var _ Store = (*SqlStore)(nil)

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .tally) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		// Fresh database.
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		v = schemaVersionV1
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}

	if v != schemaVersionV1 {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// RecordRun appends a finished run to the ledger.
func (s *SqlStore) RecordRun(r *Run) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (started_at, finished_at, root, out_dir, analyzer, version,
			scanned, accepted, no_analysis, corrupt, mismatched, report_rows, dup_rows,
			status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.FinishedAt, r.Root, r.OutDir, r.Analyzer, r.Version,
		r.Scanned, r.Accepted, r.NoAnalysis, r.Corrupt, r.Mismatched, r.ReportRows, r.DuplicateRows,
		r.Status, r.Error)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	r.ID = id
	return id, nil
}

const runColumns = `id, started_at, finished_at, root, out_dir, analyzer, version,
	scanned, accepted, no_analysis, corrupt, mismatched, report_rows, dup_rows, status, error`

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var errStr sql.NullString
	err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Root, &r.OutDir, &r.Analyzer, &r.Version,
		&r.Scanned, &r.Accepted, &r.NoAnalysis, &r.Corrupt, &r.Mismatched, &r.ReportRows, &r.DuplicateRows,
		&r.Status, &errStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.Error = nullStr(errStr)
	return &r, nil
}

// GetRun fetches one run by ID; nil if absent.
func (s *SqlStore) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// LastRun fetches the most recently recorded run; nil if none.
func (s *SqlStore) LastRun() (*Run, error) {
	row := s.db.QueryRow("SELECT " + runColumns + " FROM runs ORDER BY id DESC LIMIT 1")
	return scanRun(row)
}

// ListRuns fetches up to limit runs, newest first.
func (s *SqlStore) ListRuns(limit int) ([]*Run, error) {
	q := "SELECT " + runColumns + " FROM runs ORDER BY id DESC"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var r Run
		var errStr sql.NullString
		err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Root, &r.OutDir, &r.Analyzer, &r.Version,
			&r.Scanned, &r.Accepted, &r.NoAnalysis, &r.Corrupt, &r.Mismatched, &r.ReportRows, &r.DuplicateRows,
			&r.Status, &errStr)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Error = nullStr(errStr)
		out = append(out, &r)
	}
	return out, rows.Err()
}
