package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvnorm/internal/config"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS normalization_runs (
    id          UUID PRIMARY KEY,
    source      TEXT NOT NULL,
    input_name  TEXT NOT NULL,
    output_name TEXT,
    encoding    TEXT,
    column_count INTEGER NOT NULL DEFAULT 0,
    row_count   INTEGER NOT NULL DEFAULT 0,
    bytes_read  BIGINT NOT NULL DEFAULT 0,
    status      TEXT NOT NULL,
    error       TEXT,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS normalization_runs_started_at_idx
    ON normalization_runs (started_at DESC);
`

const upsertRunSQL = `
INSERT INTO normalization_runs (
    id, source, input_name, output_name, encoding, column_count, row_count,
    bytes_read, status, error, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    output_name = EXCLUDED.output_name,
    encoding    = EXCLUDED.encoding,
    column_count = EXCLUDED.column_count,
    row_count   = EXCLUDED.row_count,
    bytes_read  = EXCLUDED.bytes_read,
    status      = EXCLUDED.status,
    error       = EXCLUDED.error,
    finished_at = EXCLUDED.finished_at
`

const selectRunColumns = `
SELECT id, source, input_name, output_name, encoding, column_count, row_count,
       bytes_read, status, error, started_at, finished_at
FROM normalization_runs
`

// PostgresStore persists runs in the normalization_runs table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool using cfg, verifies the connection and
// creates the runs table if needed.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing pool. The store takes ownership of
// the pool and closes it in Close.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the runs table and index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, run Run) error {
	_, err := s.pool.Exec(ctx, upsertRunSQL,
		pgtype.UUID{Bytes: run.ID, Valid: true},
		string(run.Source),
		run.InputName,
		toPgText(run.OutputName),
		toPgText(run.Encoding),
		int32(run.Columns),
		int32(run.Rows),
		run.BytesRead,
		string(run.Status),
		toPgText(run.Error),
		pgtype.Timestamptz{Time: run.StartedAt, Valid: true},
		toPgTimestamptz(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.pool.Query(ctx, selectRunColumns+"ORDER BY started_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.pool.QueryRow(ctx, selectRunColumns+"WHERE id = $1", pgtype.UUID{Bytes: id, Valid: true})
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		id                         pgtype.UUID
		source, status             string
		inputName                  string
		outputName, encoding, errs pgtype.Text
		columns, rows              int32
		bytesRead                  int64
		startedAt, finishedAt      pgtype.Timestamptz
	)

	err := row.Scan(&id, &source, &inputName, &outputName, &encoding, &columns, &rows,
		&bytesRead, &status, &errs, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	return &Run{
		ID:         uuid.UUID(id.Bytes),
		Source:     Source(source),
		InputName:  inputName,
		OutputName: outputName.String,
		Encoding:   encoding.String,
		Columns:    int(columns),
		Rows:       int(rows),
		BytesRead:  bytesRead,
		Status:     Status(status),
		Error:      errs.String,
		StartedAt:  startedAt.Time.UTC(),
		FinishedAt: finishedAt.Time.UTC(),
	}, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
