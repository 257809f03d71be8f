package cmd

import (
	"fmt"
	"strconv"

	"github.com/healthhive/server/internal/config"
	"github.com/healthhive/server/internal/storage"
	"github.com/healthhive/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
		Long: `Apply or roll back schema migrations with golang-migrate.

Migrations are compiled into the binary; DATABASE_MIGRATIONS_PATH points at a
directory on disk instead.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := postgresConfig(opts)
				if err != nil {
					return err
				}
				if err := postgres.MigrateUp(cfg.URL, cfg.MigrationsPath); err != nil {
					return err
				}
				return printVersion(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				cfg, err := postgresConfig(opts)
				if err != nil {
					return err
				}
				if err := postgres.MigrateDown(cfg.URL, cfg.MigrationsPath, steps); err != nil {
					return err
				}
				return printVersion(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := postgresConfig(opts)
				if err != nil {
					return err
				}
				return printVersion(cmd, cfg)
			},
		},
	)
	return cmd
}

func postgresConfig(opts *globalOptions) (config.DatabaseConfig, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return config.DatabaseConfig{}, fmt.Errorf("config error: %w", err)
	}
	if cfg.Database.Driver != storage.DriverPostgres {
		return config.DatabaseConfig{}, fmt.Errorf("migrations need DATABASE_DRIVER=postgres, got %q", cfg.Database.Driver)
	}
	return cfg.Database, nil
}

func printVersion(cmd *cobra.Command, cfg config.DatabaseConfig) error {
	version, dirty, err := postgres.MigrationVersion(cfg.URL, cfg.MigrationsPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}
