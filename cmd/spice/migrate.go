package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-patterns/internal/cli"
	"github.com/Veraticus/spice-patterns/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has the categories and
patterns tables the pattern engine needs.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting database migration",
		"database", cfg.Database.Path,
		"backend", cfg.Database.Backend,
		"status_only", status)

	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if status {
		sqlite, ok := store.(*storage.SQLiteStorage)
		if !ok {
			_, _ = fmt.Fprintln(out, cli.FormatInfo("In-memory storage has no schema"))
			return nil
		}
		current, err := sqlite.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
		_, _ = fmt.Fprintf(out, "Database:        %s\n", cfg.Database.Path)
		_, _ = fmt.Fprintf(out, "Current version: %d\n", current)
		_, _ = fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			_, _ = fmt.Fprintln(out, cli.FormatWarning("Pending migrations: run 'spice migrate'"))
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully!"))
	return nil
}
