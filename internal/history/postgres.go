package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps runs in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to connString and ensures the schema exists.
func OpenPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL,
			source_kind TEXT NOT NULL,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			plates TEXT[] NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS runs_user_time_idx ON runs (user_name, created_at DESC);
	`)
	return err
}

// RecordRun implements Recorder.
func (s *PostgresStore) RecordRun(ctx context.Context, run Run) error {
	plates := run.Plates
	if plates == nil {
		plates = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs (id, user_name, source_kind, input_path, output_path, plates, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.User, run.SourceKind, run.InputPath, run.OutputPath, plates, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns implements Recorder.
func (s *PostgresStore) ListRuns(ctx context.Context, user string, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_name, source_kind, input_path, output_path, plates, created_at
		FROM runs
		WHERE $1 = '' OR user_name = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, user, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.User, &run.SourceKind, &run.InputPath,
			&run.OutputPath, &run.Plates, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = run.CreatedAt.UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// reset drops the runs table.
func (s *PostgresStore) reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS runs CASCADE`)
	return err
}

// Close implements Recorder.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
