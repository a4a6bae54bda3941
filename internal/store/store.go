// Package store persists processing-run history to PostgreSQL. The
// service works without it: when no database is configured, callers hold
// a nil *Store and every operation becomes a no-op or not-found.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axsol/varconfig/internal/pipeline"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one recorded processing run.
type Run struct {
	ID            string                 `json:"id"`
	FileName      string                 `json:"fileName"`
	VariableCount int                    `json:"variableCount"`
	HandlerCount  int                    `json:"handlerCount"`
	Spans         []pipeline.HandlerSpan `json:"spans"`
	Records       []map[string]any       `json:"records,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// Store records processing runs in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given pool and ensures the schema
// exists.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("store migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS processing_runs (
    id             UUID PRIMARY KEY,
    file_name      TEXT NOT NULL,
    variable_count INTEGER NOT NULL,
    handler_count  INTEGER NOT NULL,
    spans          JSONB NOT NULL,
    records        JSONB NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_processing_runs_created_at
    ON processing_runs (created_at DESC);`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// RecordRun stores the outcome of a processing run and returns its id.
// A nil store silently records nothing and returns an empty id.
func (s *Store) RecordRun(ctx context.Context, fileName string, result *pipeline.Result) (string, error) {
	if s == nil {
		return "", nil
	}

	id := uuid.New()
	spans, err := json.Marshal(result.Spans)
	if err != nil {
		return "", fmt.Errorf("encoding spans: %w", err)
	}
	records, err := json.Marshal(result.Records)
	if err != nil {
		return "", fmt.Errorf("encoding records: %w", err)
	}

	const q = `
INSERT INTO processing_runs (id, file_name, variable_count, handler_count, spans, records)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.pool.Exec(ctx, q,
		pgtype.UUID{Bytes: id, Valid: true},
		fileName,
		len(result.Rows),
		result.HandlerCount,
		spans,
		records,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id.String(), nil
}

// ListRuns returns the most recent runs, newest first, without their
// per-variable records. A nil store returns an empty list.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil {
		return []Run{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	const q = `
SELECT id, file_name, variable_count, handler_count, spans, created_at
FROM processing_runs
ORDER BY created_at DESC
LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run   Run
			id    pgtype.UUID
			spans []byte
		)
		if err := rows.Scan(&id, &run.FileName, &run.VariableCount, &run.HandlerCount, &spans, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.ID = uuid.UUID(id.Bytes).String()
		if err := json.Unmarshal(spans, &run.Spans); err != nil {
			return nil, fmt.Errorf("decoding spans: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run including its per-variable records.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	const q = `
SELECT id, file_name, variable_count, handler_count, spans, records, created_at
FROM processing_runs
WHERE id = $1`
	var (
		run     Run
		rowID   pgtype.UUID
		spans   []byte
		records []byte
	)
	err = s.pool.QueryRow(ctx, q, pgtype.UUID{Bytes: parsed, Valid: true}).
		Scan(&rowID, &run.FileName, &run.VariableCount, &run.HandlerCount, &spans, &records, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	run.ID = uuid.UUID(rowID.Bytes).String()
	if err := json.Unmarshal(spans, &run.Spans); err != nil {
		return nil, fmt.Errorf("decoding spans: %w", err)
	}
	if err := json.Unmarshal(records, &run.Records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return &run, nil
}
