package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Clients",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS clients (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					company_name TEXT NOT NULL,
					employee_count INTEGER NOT NULL CHECK (employee_count >= 0),
					legal_form TEXT,
					street TEXT NOT NULL,
					postal_code TEXT NOT NULL,
					city TEXT NOT NULL,
					country TEXT NOT NULL DEFAULT 'Deutschland',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_clients_owner ON clients(owner_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Transactions with duplicate hash",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					hash TEXT UNIQUE NOT NULL,
					booking_date DATE NOT NULL,
					amount TEXT NOT NULL,
					booking_text TEXT NOT NULL,
					account TEXT,
					counter_account TEXT,
					currency TEXT NOT NULL DEFAULT 'EUR',
					debit_credit TEXT,
					reference TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_owner_date ON transactions(owner_id, booking_date)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Import run journal",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS import_runs (
					id TEXT PRIMARY KEY,
					session_id TEXT NOT NULL,
					owner_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					filename TEXT,
					policy TEXT NOT NULL,
					total INTEGER NOT NULL DEFAULT 0,
					imported INTEGER NOT NULL DEFAULT 0,
					skipped INTEGER NOT NULL DEFAULT 0,
					errors INTEGER NOT NULL DEFAULT 0,
					started_at DATETIME NOT NULL,
					finished_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_import_runs_owner ON import_runs(owner_id, finished_at)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Client trash",
		Up: func(tx *sql.Tx) error {
			if err := execAll(tx,
				`ALTER TABLE clients ADD COLUMN deleted_at DATETIME`,
				`CREATE INDEX idx_clients_deleted ON clients(owner_id, deleted_at)`,
			); err != nil {
				return err
			}
			slog.Info("Added soft delete to clients")
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
