// Package postgres implements history.Repository on Postgres via pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"cleancsv/internal/history"
)

type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	history.Register("postgres", New)
}

func New(ctx context.Context, cfg history.Config) (history.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

const createSQL = `
CREATE TABLE IF NOT EXISTS cleaning_runs (
	id            UUID PRIMARY KEY,
	spec_path     TEXT NOT NULL,
	used_fallback BOOLEAN NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL,
	rows_in       BIGINT NOT NULL,
	rows_out      BIGINT NOT NULL,
	columns_in    INT NOT NULL,
	columns_out   INT NOT NULL,
	mutated       BOOLEAN NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
)`

// Init creates the cleaning_runs table. Idempotent.
func (r *Repo) Init(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, createSQL)
	return err
}

func (r *Repo) Record(ctx context.Context, run history.Run) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO cleaning_runs
	(id, spec_path, used_fallback, started_at, finished_at,
	 rows_in, rows_out, columns_in, columns_out, mutated, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID,
		run.SpecPath,
		run.UsedFallback,
		run.StartedAt,
		run.FinishedAt,
		run.RowsIn,
		run.RowsOut,
		run.ColumnsIn,
		run.ColumnsOut,
		run.Mutated,
		run.Error,
	)
	return err
}
