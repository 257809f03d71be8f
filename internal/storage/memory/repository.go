package memory

import (
	"context"

	"github.com/healthhive/server/internal/domain/places"
)

// Repository is the in-process storage.Repository used for development and tests.
type Repository struct {
	places *PlaceStore
}

func NewRepository() *Repository {
	return &Repository{places: NewPlaceStore()}
}

func (r *Repository) Places() places.Store {
	return r.places
}

// PlaceStore exposes the concrete store for loading raw documents.
func (r *Repository) PlaceStore() *PlaceStore {
	return r.places
}

func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *Repository) Close() {}
