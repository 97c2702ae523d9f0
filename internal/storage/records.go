package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// Collections accepted by InsertRecords.
const (
	CollectionClients      = "clients"
	CollectionTransactions = "transactions"
)

type recordInserter func(ctx context.Context, tx *sql.Tx, rec *model.Record) (bool, error)

// InsertRecords stores a batch of imported records in one database
// transaction and returns the records that were inserted, with ids set.
// Records that cannot be converted, violate a constraint, or repeat a
// transaction of an earlier batch are logged and left out of the result.
// Identical transactions within one batch are all stored. An error is
// returned only when the batch as a whole could not be stored.
func (s *SQLiteStorage) InsertRecords(ctx context.Context, collection, ownerID string, records []model.Record) ([]model.Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	var insert recordInserter
	switch collection {
	case CollectionClients:
		insert = s.insertClientRecord
	case CollectionTransactions:
		insert = s.transactionInserter()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}

	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	inserted := make([]model.Record, 0, len(records))
	var failed, duplicates int

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := records[i]
		rec.ID = uuid.New().String()
		rec.OwnerID = ownerID
		rec.CreatedAt = now

		ok, err := insert(ctx, tx, &rec)
		switch {
		case err != nil:
			failed++
			slog.Warn("Rejected record",
				"collection", collection,
				"row", rec.SourceRow,
				"error", err)
		case !ok:
			duplicates++
			slog.Info("Skipped duplicate record",
				"collection", collection,
				"row", rec.SourceRow)
		default:
			inserted = append(inserted, rec)
		}

		common.ReportProgress(ctx, i+1, len(records))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Stored import batch",
		"collection", collection,
		"owner", ownerID,
		"submitted", len(records),
		"inserted", len(inserted),
		"duplicates", duplicates,
		"rejected", failed)

	return inserted, nil
}

func (s *SQLiteStorage) insertClientRecord(ctx context.Context, tx *sql.Tx, rec *model.Record) (bool, error) {
	client, err := clientFromRecord(rec)
	if err != nil {
		return false, err
	}
	if err := s.saveClientTx(ctx, tx, client); err != nil {
		return false, err
	}
	return true, nil
}

// transactionInserter numbers identical bookings of one batch so each gets
// its own hash.
func (s *SQLiteStorage) transactionInserter() recordInserter {
	seen := make(map[string]int)
	return func(ctx context.Context, tx *sql.Tx, rec *model.Record) (bool, error) {
		txn, err := transactionFromRecord(rec)
		if err != nil {
			return false, err
		}
		base := txn.Hash
		if n := seen[base]; n > 0 {
			txn.Occurrence = n
			txn.Hash = txn.GenerateHash()
		}
		seen[base]++
		return s.saveTransactionTx(ctx, tx, txn)
	}
}

func clientFromRecord(rec *model.Record) (*model.Client, error) {
	f := rec.Fields
	client := &model.Client{
		ID:          rec.ID,
		OwnerID:     rec.OwnerID,
		CreatedAt:   rec.CreatedAt,
		CompanyName: f["company_name"],
		LegalForm:   f["legal_form"],
		Street:      f["street"],
		PostalCode:  f["postal_code"],
		City:        f["city"],
		Country:     f["country"],
	}
	if client.Country == "" {
		client.Country = "Deutschland"
	}

	count, err := strconv.Atoi(strings.TrimSpace(f["employee_count"]))
	if err != nil {
		return nil, fmt.Errorf("%w: employee count %q is not a whole number", ErrInvalidClient, f["employee_count"])
	}
	client.EmployeeCount = count

	if err := validateClient(client); err != nil {
		return nil, err
	}
	return client, nil
}

func transactionFromRecord(rec *model.Record) (*model.Transaction, error) {
	f := rec.Fields
	txn := &model.Transaction{
		ID:             rec.ID,
		OwnerID:        rec.OwnerID,
		CreatedAt:      rec.CreatedAt,
		Text:           f["booking_text"],
		Account:        f["account"],
		CounterAccount: f["counter_account"],
		Currency:       f["currency"],
		DebitCredit:    f["debit_credit"],
		Reference:      f["reference"],
	}
	if txn.Currency == "" {
		txn.Currency = "EUR"
	}

	date, err := time.Parse("2006-01-02", f["booking_date"])
	if err != nil {
		return nil, fmt.Errorf("%w: booking date %q", ErrInvalidBooking, f["booking_date"])
	}
	txn.BookingDate = date

	amount, err := decimal.NewFromString(f["amount"])
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", ErrInvalidBooking, f["amount"])
	}
	txn.Amount = amount

	if err := validateTransaction(txn); err != nil {
		return nil, err
	}
	txn.Hash = txn.GenerateHash()
	return txn, nil
}
