package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dropSQL = `
DROP TABLE IF EXISTS knowledge_chunks;
DROP TABLE IF EXISTS raw_content;
DROP TABLE IF EXISTS crawl_targets;
`

// schemaSQL takes the embedding dimension as its single format argument.
const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS crawl_targets (
	id              BIGSERIAL PRIMARY KEY,
	url             TEXT UNIQUE NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	last_attempt_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS raw_content (
	id         BIGSERIAL PRIMARY KEY,
	target_id  BIGINT REFERENCES crawl_targets(id) ON DELETE SET NULL,
	url        TEXT NOT NULL,
	raw_text   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS knowledge_chunks (
	id         BIGSERIAL PRIMARY KEY,
	embedding  vector(%d) NOT NULL,
	summary    TEXT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL,
	entities   TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_crawl_targets_status ON crawl_targets (status, id);
CREATE INDEX IF NOT EXISTS idx_raw_content_status ON raw_content (status, id);
`

// Migrate creates the task queue tables and the pgvector knowledge table.
// dim is the embedding dimension the knowledge column is declared with.
func Migrate(ctx context.Context, db *pgxpool.Pool, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dim)
	}
	if _, err := db.Exec(ctx, fmt.Sprintf(schemaSQL, dim)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Reset destructively drops and recreates the schema. Used by `foundry init`.
func Reset(ctx context.Context, db *pgxpool.Pool, dim int) error {
	if _, err := db.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return Migrate(ctx, db, dim)
}
