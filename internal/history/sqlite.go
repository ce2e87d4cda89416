package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps runs in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL,
			source_kind TEXT NOT NULL,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			plates TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_user_time ON runs(user_name, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(created_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// RecordRun implements Recorder.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	plates := run.Plates
	if plates == nil {
		plates = []string{}
	}
	platesJSON, err := json.Marshal(plates)
	if err != nil {
		return fmt.Errorf("failed to marshal plates: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, user_name, source_kind, input_path, output_path, plates, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.User, run.SourceKind, run.InputPath, run.OutputPath,
		string(platesJSON), run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns implements Recorder.
func (s *SQLiteStore) ListRuns(ctx context.Context, user string, limit int) ([]Run, error) {
	query := `SELECT id, user_name, source_kind, input_path, output_path, plates, created_at
		FROM runs`
	args := []any{}
	if user != "" {
		query += ` WHERE user_name = ?`
		args = append(args, user)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, normalizeLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run        Run
			platesJSON string
			createdAt  int64
		)
		if err := rows.Scan(&run.ID, &run.User, &run.SourceKind, &run.InputPath,
			&run.OutputPath, &platesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(platesJSON), &run.Plates); err != nil {
			return nil, fmt.Errorf("run %s: bad plates column: %w", run.ID, err)
		}
		run.CreatedAt = time.Unix(0, createdAt).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close implements Recorder.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
