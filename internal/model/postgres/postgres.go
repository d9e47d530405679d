// Package postgres is the alternate model.Store backend, selected when
// DATABASE_URL uses the postgres:// scheme, grounded on the teacher's
// internal/storage/postgres (pgxpool pattern). Unlike the teacher, schema
// bootstrap runs directly against embedded idempotent DDL rather than
// golang-migrate, since this spec's schema (§6) is closed and small enough
// that a second migration-driver submodule (which would reintroduce the
// lib/pq dependency dropped from go.mod) buys nothing over plain
// CREATE TABLE IF NOT EXISTS.
package postgres

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func New(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
