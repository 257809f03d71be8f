package storage

import (
	"context"
	"fmt"

	"github.com/healthhive/server/internal/domain/places"
)

// Repository groups data access by domain.
type Repository interface {
	Places() places.Store

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close()
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrUnknownDriver is returned for a DATABASE_DRIVER value that is not supported.
type ErrUnknownDriver string

func (e ErrUnknownDriver) Error() string {
	return fmt.Sprintf("unknown database driver %q (want %s or %s)", string(e), DriverPostgres, DriverMemory)
}
