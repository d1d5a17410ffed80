// Package sqlite implements history.Repository on SQLite.
//
// SQLite has no native timestamp type; timestamps are stored as RFC3339Nano
// strings for reliable round-trip behavior and easy debugging.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"cleancsv/internal/history"
)

type Repo struct {
	db *sql.DB
}

func init() {
	history.Register("sqlite", New)
}

func New(ctx context.Context, cfg history.Config) (history.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

const createSQL = `
CREATE TABLE IF NOT EXISTS cleaning_runs (
	id            TEXT PRIMARY KEY,
	spec_path     TEXT NOT NULL,
	used_fallback INTEGER NOT NULL,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	rows_in       INTEGER NOT NULL,
	rows_out      INTEGER NOT NULL,
	columns_in    INTEGER NOT NULL,
	columns_out   INTEGER NOT NULL,
	mutated       INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
)`

// Init creates the cleaning_runs table. Idempotent.
func (r *Repo) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createSQL)
	return err
}

func (r *Repo) Record(ctx context.Context, run history.Run) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO cleaning_runs
	(id, spec_path, used_fallback, started_at, finished_at,
	 rows_in, rows_out, columns_in, columns_out, mutated, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SpecPath,
		boolInt(run.UsedFallback),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.RowsIn,
		run.RowsOut,
		run.ColumnsIn,
		run.ColumnsOut,
		boolInt(run.Mutated),
		run.Error,
	)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
