package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthhive/server/internal/domain/places"
	"github.com/healthhive/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Repository = (*Repository)(nil)

// Repository implements storage.Repository on a pgx pool. The pool is owned
// by the caller that built it; Close releases it.
type Repository struct {
	pool   *pgxpool.Pool
	places *PlaceStore
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Repository{
		pool:   pool,
		places: NewPlaceStore(pool),
	}, nil
}

func (r *Repository) Places() places.Store {
	return r.places
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// SchemaVersion reads the golang-migrate bookkeeping row.
func (r *Repository) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := r.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("no migrations applied")
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return uint(version), dirty, nil
}

func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *Repository) Close() {
	r.pool.Close()
}
