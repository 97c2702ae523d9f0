package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// SaveImportRun records a finished import.
func (s *SQLiteStorage) SaveImportRun(ctx context.Context, run *model.ImportRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: import run", ErrNilParameter)
	}
	if err := validateString(run.OwnerID, "ownerID"); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (
			id, session_id, owner_id, kind, filename, policy,
			total, imported, skipped, errors, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SessionID,
		run.OwnerID,
		run.Kind,
		run.Filename,
		run.Policy,
		run.Total,
		run.Imported,
		run.Skipped,
		run.Errors,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save import run: %w", err)
	}
	return nil
}

// ListImportRuns returns an owner's most recent imports first.
func (s *SQLiteStorage) ListImportRuns(ctx context.Context, ownerID string, limit int) ([]model.ImportRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query, args := paginate(`
		SELECT id, session_id, owner_id, kind, filename, policy,
			total, imported, skipped, errors, started_at, finished_at
		FROM import_runs
		WHERE owner_id = ?
		ORDER BY finished_at DESC, id`, []any{ownerID}, limit, 0)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.ImportRun
	for rows.Next() {
		var r model.ImportRun
		if err := rows.Scan(
			&r.ID,
			&r.SessionID,
			&r.OwnerID,
			&r.Kind,
			&r.Filename,
			&r.Policy,
			&r.Total,
			&r.Imported,
			&r.Skipped,
			&r.Errors,
			&r.StartedAt,
			&r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import runs: %w", err)
	}
	return runs, nil
}
