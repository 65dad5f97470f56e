package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
	"github.com/nerrad567/robot-relay/internal/infrastructure/database"
	"github.com/nerrad567/robot-relay/migrations"
)

// newMigrateCmd manages the audit database schema outside of serve, which
// only ever migrates up.
func newMigrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the session audit database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), opts, func(ctx context.Context, db *database.DB) error {
					if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
						return fmt.Errorf("running migrations: %w", err)
					}
					return printStatus(ctx, cmd.OutOrStdout(), db)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recently applied migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), opts, func(ctx context.Context, db *database.DB) error {
					if err := db.MigrateDown(ctx, migrations.FS, migrations.Dir); err != nil {
						return fmt.Errorf("rolling back migration: %w", err)
					}
					return printStatus(ctx, cmd.OutOrStdout(), db)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), opts, func(ctx context.Context, db *database.DB) error {
					return printStatus(ctx, cmd.OutOrStdout(), db)
				})
			},
		},
	)
	return cmd
}

// withDatabase opens the configured database for fn. The database.enabled
// flag is ignored: the schema can be prepared before auditing is turned on.
func withDatabase(ctx context.Context, opts *options, fn func(context.Context, *database.DB) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path is not set")
	}

	db, err := database.Open(databaseConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-mostly command, nothing to flush

	return fn(ctx, db)
}

func databaseConfig(cfg config.DatabaseConfig) database.Config {
	return database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	}
}

func printStatus(ctx context.Context, w io.Writer, db *database.DB) error {
	applied, pending, err := db.MigrationStatus(ctx, migrations.FS, migrations.Dir)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	for _, m := range applied {
		fmt.Fprintf(w, "applied  %s  %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Fprintf(w, "pending  %s  %s\n", m.Version, m.Name)
	}
	fmt.Fprintf(w, "%d applied, %d pending\n", len(applied), len(pending))
	return nil
}
