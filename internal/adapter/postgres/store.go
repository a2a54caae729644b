package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS download_history (
	id            BIGSERIAL PRIMARY KEY,
	job_id        TEXT NOT NULL,
	type          TEXT NOT NULL,
	number        TEXT NOT NULL,
	image_name    TEXT NOT NULL,
	destination   TEXT NOT NULL,
	image_url     TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL DEFAULT '',
	attempts      INT NOT NULL DEFAULT 1,
	downloaded_at TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (destination, image_name)
);

CREATE TABLE IF NOT EXISTS failed_downloads (
	id           BIGSERIAL PRIMARY KEY,
	job_id       TEXT NOT NULL,
	number       TEXT NOT NULL,
	page         INT NOT NULL,
	item_index   INT NOT NULL,
	source_url   TEXT NOT NULL,
	last_url     TEXT NOT NULL,
	author       TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	attempts     INT NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	completed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS failed_downloads_job_id_idx ON failed_downloads (job_id);
`

// Connect opens a pool to dsn and makes sure the schema exists.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to apply schema: %w", err)
	}
	return pool, nil
}
