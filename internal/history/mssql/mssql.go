// Package mssql implements history.Repository on SQL Server.
package mssql

import (
	"context"
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"

	"cleancsv/internal/history"
)

type Repo struct {
	db *sql.DB
}

func init() {
	history.Register("mssql", New)
}

func New(ctx context.Context, cfg history.Config) (history.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
IF OBJECT_ID(N'cleaning_runs', N'U') IS NULL
CREATE TABLE cleaning_runs (
	id            UNIQUEIDENTIFIER PRIMARY KEY,
	spec_path     NVARCHAR(1024) NOT NULL,
	used_fallback BIT NOT NULL,
	started_at    DATETIMEOFFSET NOT NULL,
	finished_at   DATETIMEOFFSET NOT NULL,
	rows_in       BIGINT NOT NULL,
	rows_out      BIGINT NOT NULL,
	columns_in    INT NOT NULL,
	columns_out   INT NOT NULL,
	mutated       BIT NOT NULL,
	error         NVARCHAR(MAX) NOT NULL DEFAULT ''
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
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10, @p11)`,
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
