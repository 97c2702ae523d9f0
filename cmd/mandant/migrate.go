package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mandantenanalyse/internal/cli"
	"github.com/Veraticus/mandantenanalyse/internal/config"
	"github.com/Veraticus/mandantenanalyse/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates automatically; use --status to see the schema
version without changing anything.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status {
		fmt.Fprintf(out, "Database:       %s\n", dbPath)
		fmt.Fprintf(out, "Schema version: %d\n", current)
		fmt.Fprintf(out, "Latest version: %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(out, cli.FormatWarning("Migrations pending. Run `mandant migrate`."))
		}
		return nil
	}

	slog.Info("Running database migrations", "database", dbPath, "from", current, "to", storage.ExpectedSchemaVersion)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database is at schema version %d", storage.ExpectedSchemaVersion)))
	return nil
}
