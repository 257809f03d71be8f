package cmd

import (
	"context"
	"fmt"

	"github.com/healthhive/server/internal/api/handlers"
	"github.com/healthhive/server/internal/config"
	"github.com/healthhive/server/internal/storage"
	"github.com/healthhive/server/internal/storage/memory"
	"github.com/healthhive/server/internal/storage/postgres"
	"github.com/rs/zerolog"
)

// openedStore is a Repository plus the hooks only some drivers provide.
type openedStore struct {
	storage.Repository
	migrations handlers.MigrationStatus
	pg         *postgres.Repository
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*openedStore, error) {
	switch cfg.Driver {
	case storage.DriverMemory:
		logger.Warn().Msg("using in-memory place store; data is lost on restart")
		return &openedStore{Repository: memory.NewRepository()}, nil
	case storage.DriverPostgres:
		if cfg.AutoMigrate {
			if err := postgres.MigrateUp(cfg.URL, cfg.MigrationsPath); err != nil {
				return nil, err
			}
			logger.Info().Msg("migrations applied")
		}

		pool, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		repo, err := postgres.NewRepository(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &openedStore{Repository: repo, migrations: repo.SchemaVersion, pg: repo}, nil
	default:
		return nil, storage.ErrUnknownDriver(cfg.Driver)
	}
}
