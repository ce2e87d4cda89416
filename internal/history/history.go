// Package history records processing runs: who processed which input, where
// the redacted output went and which plates were found.
//
// The pipeline never writes history itself. Callers record exactly one Run
// per processed image or video once the run has finished.
package history

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source kinds.
const (
	SourceImage = "image"
	SourceVideo = "video"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50

// Run is one completed processing run.
type Run struct {
	ID         string    `json:"id"`
	User       string    `json:"user"`
	SourceKind string    `json:"source_kind"`
	InputPath  string    `json:"input_path"`
	OutputPath string    `json:"output_path"`
	Plates     []string  `json:"plates"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRun returns a Run with a fresh ID, stamped now.
func NewRun(user, sourceKind, inputPath, outputPath string, plates []string) Run {
	if plates == nil {
		plates = []string{}
	}
	return Run{
		ID:         uuid.NewString(),
		User:       user,
		SourceKind: sourceKind,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Plates:     plates,
		CreatedAt:  time.Now().UTC(),
	}
}

// Recorder stores runs.
type Recorder interface {
	// RecordRun stores run.
	RecordRun(ctx context.Context, run Run) error

	// ListRuns returns the newest runs first. An empty user matches every
	// user. limit <= 0 means DefaultListLimit.
	ListRuns(ctx context.Context, user string, limit int) ([]Run, error)

	Close() error
}

// Open connects to the store named by dsn.
//
// postgres:// and postgresql:// URLs use PostgreSQL; anything else is a
// SQLite file path. An empty dsn returns a Recorder that keeps nothing.
// The schema is created if missing.
func Open(ctx context.Context, dsn string) (Recorder, error) {
	switch {
	case dsn == "":
		return Discard{}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Discard is a Recorder that keeps nothing.
type Discard struct{}

func (Discard) RecordRun(context.Context, Run) error { return nil }

func (Discard) ListRuns(context.Context, string, int) ([]Run, error) { return []Run{}, nil }

func (Discard) Close() error { return nil }

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
