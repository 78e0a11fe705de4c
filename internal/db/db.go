// Package db stores compression run history in PostgreSQL.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks the connection
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS compression_runs (
	id               UUID PRIMARY KEY,
	role             TEXT NOT NULL,
	status           TEXT NOT NULL,
	final_score      INTEGER NOT NULL DEFAULT 0,
	page_count       INTEGER NOT NULL DEFAULT 0,
	iterations       INTEGER NOT NULL DEFAULT 0,
	pressure         DOUBLE PRECISION NOT NULL DEFAULT 0,
	tier             TEXT NOT NULL DEFAULT '',
	escalation_level INTEGER NOT NULL DEFAULT 0,
	error_message    TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS compression_iterations (
	id               BIGSERIAL PRIMARY KEY,
	run_id           UUID NOT NULL REFERENCES compression_runs(id) ON DELETE CASCADE,
	iteration        INTEGER NOT NULL,
	raw_score        INTEGER NOT NULL,
	adjusted_score   INTEGER NOT NULL,
	page_count       INTEGER NOT NULL,
	pressure         DOUBLE PRECISION NOT NULL,
	escalation_level INTEGER NOT NULL,
	passed           BOOLEAN NOT NULL,
	rolled_back      BOOLEAN NOT NULL,
	review_source    TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (run_id, iteration)
);

CREATE INDEX IF NOT EXISTS compression_runs_created_at_idx ON compression_runs (created_at DESC);
`

// EnsureSchema creates the history tables when they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
