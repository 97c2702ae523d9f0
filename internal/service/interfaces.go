// Package service defines the interfaces shared between the CLI and its backends.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// ClientFilter defines filtering options for client listings.
type ClientFilter struct {
	Search string // case-insensitive match on company name or city
	Limit  int
	Offset int
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Import operations
	InsertRecords(ctx context.Context, collection, ownerID string, records []model.Record) ([]model.Record, error)
	SaveImportRun(ctx context.Context, run *model.ImportRun) error
	ListImportRuns(ctx context.Context, ownerID string, limit int) ([]model.ImportRun, error)

	// Client operations
	ListClients(ctx context.Context, ownerID string, filter ClientFilter) ([]model.Client, error)
	ListDeletedClients(ctx context.Context, ownerID string) ([]model.Client, error)
	SoftDeleteClient(ctx context.Context, ownerID, clientID string) error
	RestoreClient(ctx context.Context, ownerID, clientID string) error

	// Transaction operations
	ListTransactions(ctx context.Context, ownerID string, filter TransactionFilter) ([]model.Transaction, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
