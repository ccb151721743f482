// Package store implements the persistent collections behind the pipeline:
// sources, jobs, raw listings, opportunities and regional pricing.
package store

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"flipscout/ingestion-service/internal/pipeline"
)

// Store is the PostgreSQL-backed persistence layer.
type Store struct {
	pool *pgxpool.Pool
}

var _ pipeline.Store = (*Store)(nil)

// New wires a Store over a pgx connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
