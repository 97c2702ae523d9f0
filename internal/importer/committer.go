// Package importer commits mapped rows to storage under a commit policy.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/mandantenanalyse/internal/mapping"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/schema"
	"github.com/Veraticus/mandantenanalyse/internal/validation"
)

// Sink stores a batch of records. It returns the records it actually
// inserted, with ids assigned; records missing from the result failed.
type Sink interface {
	InsertRecords(ctx context.Context, collection, ownerID string, records []model.Record) ([]model.Record, error)
}

// Outcome tallies one commit. Imported+Skipped+Errors equals Total.
type Outcome struct {
	SkippedRows []int
	FailedRows  []int
	Total       int
	Imported    int
	Skipped     int
	Errors      int
}

// Request is everything a commit needs.
type Request struct {
	Table   *model.RawTable
	Mapping *mapping.FieldMapping
	Schema  *schema.Schema
	ActorID string
	Policy  Policy
}

// Commit inserts every eligible row of the table as one batch. A row is
// eligible when all required fields have a value; rule failures reported by
// validation do not exclude a row. Commit is not idempotent and never
// retries.
func Commit(ctx context.Context, req Request, sink Sink) (Outcome, error) {
	if strings.TrimSpace(req.ActorID) == "" {
		return Outcome{}, ErrMissingActor
	}

	rows := mapping.Apply(req.Table, req.Mapping)
	outcome := Outcome{Total: len(rows)}

	var records []model.Record
	for _, row := range rows {
		if !validation.RowEligible(row, req.Schema) {
			outcome.SkippedRows = append(outcome.SkippedRows, row.SourceRow)
			continue
		}
		records = append(records, buildRecord(row, req.Schema, req.ActorID))
	}

	if len(outcome.SkippedRows) > 0 && req.Policy == AbortOnAnyError {
		slog.Warn("Import blocked",
			"collection", req.Schema.Collection,
			"ineligible_rows", len(outcome.SkippedRows))
		return Outcome{Total: len(rows)}, &ValidationBlockedError{Rows: outcome.SkippedRows}
	}
	outcome.Skipped = len(outcome.SkippedRows)

	if len(records) == 0 {
		slog.Info("Nothing to import",
			"collection", req.Schema.Collection,
			"total", outcome.Total,
			"skipped", outcome.Skipped)
		return outcome, nil
	}

	inserted, err := sink.InsertRecords(ctx, req.Schema.Collection, req.ActorID, records)
	if err != nil {
		slog.Error("Import batch rejected",
			"collection", req.Schema.Collection,
			"records", len(records),
			"error", err)
		return Outcome{Total: len(rows)}, &CommitTransportError{Err: err}
	}

	acked := make(map[int]bool, len(inserted))
	for _, rec := range inserted {
		acked[rec.SourceRow] = true
	}
	for _, rec := range records {
		if acked[rec.SourceRow] {
			outcome.Imported++
			continue
		}
		outcome.FailedRows = append(outcome.FailedRows, rec.SourceRow)
	}
	outcome.Errors = len(outcome.FailedRows)

	slog.Info("Import committed",
		"collection", req.Schema.Collection,
		"owner", req.ActorID,
		"total", outcome.Total,
		"imported", outcome.Imported,
		"skipped", outcome.Skipped,
		"errors", outcome.Errors)

	return outcome, nil
}

func buildRecord(row model.MappedRow, s *schema.Schema, ownerID string) model.Record {
	fields := make(map[string]string)
	for _, f := range s.Fields() {
		value := s.Normalize(f, row.Value(f.Name))
		if value == "" {
			continue
		}
		fields[f.Column] = value
	}
	return model.Record{
		OwnerID:   ownerID,
		SourceRow: row.SourceRow,
		Fields:    fields,
	}
}

// String renders the outcome for logs and terminal output.
func (o Outcome) String() string {
	return fmt.Sprintf("%d imported, %d skipped, %d failed of %d rows", o.Imported, o.Skipped, o.Errors, o.Total)
}
