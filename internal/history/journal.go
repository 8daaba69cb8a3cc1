// Package history keeps a best-effort journal of applied mutations in
// SQLite. The journal is an audit trail, not a source of truth: the
// workspace session is never reconstructed from it, and a journal
// failure never fails the mutation it describes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Entry is one applied mutation.
type Entry struct {
	ID           int64     `json:"id"`
	Operation    string    `json:"operation"` // code_fix | refactoring | cleanup | rename
	Subject      string    `json:"subject"`   // action title, rule summary, or new name
	SolutionPath string    `json:"solution_path"`
	Version      uint64    `json:"version"` // snapshot version after the mutation
	ChangedFiles int       `json:"changed_files"`
	AppliedAt    time.Time `json:"applied_at"`
}

// Store is the SQLite-backed journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at dataDir/history.db.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(dataDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS mutations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			operation     TEXT    NOT NULL,
			subject       TEXT    NOT NULL,
			solution_path TEXT    NOT NULL,
			version       INTEGER NOT NULL,
			changed_files INTEGER NOT NULL,
			applied_at    TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_mutations_solution
			ON mutations(solution_path, id DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one applied mutation.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mutations (operation, subject, solution_path, version, changed_files, applied_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Operation, e.Subject, e.SolutionPath, e.Version, e.ChangedFiles,
		e.AppliedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns the newest entries for a solution, most recent first.
// An empty solutionPath returns entries across all solutions.
func (s *Store) Recent(ctx context.Context, solutionPath string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, operation, subject, solution_path, version, changed_files, applied_at
		FROM mutations`
	args := []any{}
	if solutionPath != "" {
		query += ` WHERE solution_path = ?`
		args = append(args, solutionPath)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var appliedAt string
		if err := rows.Scan(&e.ID, &e.Operation, &e.Subject, &e.SolutionPath, &e.Version, &e.ChangedFiles, &appliedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, appliedAt); err == nil {
			e.AppliedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
