// Package testutil provides shared fixtures for tests that need a real
// database or sample upload files.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
	"github.com/Veraticus/mandantenanalyse/internal/storage"
)

// Owner is the owner id used by seeded fixtures.
const Owner = "berater-test"

// TestDB is a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Clients        []model.Record
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database that is closed when the
// test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates an in-memory database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if len(opts.Clients) > 0 {
		inserted, err := store.InsertRecords(ctx, storage.CollectionClients, Owner, opts.Clients)
		if err != nil {
			t.Fatalf("failed to seed clients: %v", err)
		}
		if len(inserted) != len(opts.Clients) {
			t.Fatalf("seeded %d of %d clients", len(inserted), len(opts.Clients))
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustListClients returns the active clients of owner or fails the test.
func (db *TestDB) MustListClients(owner string) []model.Client {
	db.t.Helper()
	clients, err := db.Storage.ListClients(context.Background(), owner, service.ClientFilter{})
	if err != nil {
		db.t.Fatalf("failed to list clients: %v", err)
	}
	return clients
}

// MustListImportRuns returns the recorded imports of owner or fails the test.
func (db *TestDB) MustListImportRuns(owner string) []model.ImportRun {
	db.t.Helper()
	runs, err := db.Storage.ListImportRuns(context.Background(), owner, 0)
	if err != nil {
		db.t.Fatalf("failed to list import runs: %v", err)
	}
	return runs
}
