package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

const clientColumns = `id, owner_id, company_name, employee_count, legal_form, street,
	postal_code, city, country, created_at, deleted_at`

func (s *SQLiteStorage) saveClientTx(ctx context.Context, q queryable, c *model.Client) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO clients (
			id, owner_id, company_name, employee_count, legal_form,
			street, postal_code, city, country, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.OwnerID,
		c.CompanyName,
		c.EmployeeCount,
		nullString(c.LegalForm),
		c.Street,
		c.PostalCode,
		c.City,
		c.Country,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert client %q: %w", c.CompanyName, err)
	}
	return nil
}

// ListClients returns the active clients of an owner, ordered by name.
func (s *SQLiteStorage) ListClients(ctx context.Context, ownerID string, filter service.ClientFilter) ([]model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE owner_id = ? AND deleted_at IS NULL`
	args := []any{ownerID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		query += ` AND (company_name LIKE ? OR city LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY company_name COLLATE NOCASE, created_at`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	return s.queryClients(ctx, query, args...)
}

// ListDeletedClients returns the trash, most recently deleted first.
func (s *SQLiteStorage) ListDeletedClients(ctx context.Context, ownerID string) ([]model.Client, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	return s.queryClients(ctx,
		`SELECT `+clientColumns+` FROM clients
		WHERE owner_id = ? AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, company_name COLLATE NOCASE`,
		ownerID)
}

// SoftDeleteClient moves a client to the trash.
func (s *SQLiteStorage) SoftDeleteClient(ctx context.Context, ownerID, clientID string) error {
	return s.setClientDeleted(ctx, ownerID, clientID, true)
}

// RestoreClient takes a client out of the trash.
func (s *SQLiteStorage) RestoreClient(ctx context.Context, ownerID, clientID string) error {
	return s.setClientDeleted(ctx, ownerID, clientID, false)
}

func (s *SQLiteStorage) setClientDeleted(ctx context.Context, ownerID, clientID string, deleted bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	if err := validateString(clientID, "clientID"); err != nil {
		return err
	}

	query := `UPDATE clients SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL`
	if !deleted {
		query = `UPDATE clients SET deleted_at = NULL
			WHERE id = ? AND owner_id = ? AND deleted_at IS NOT NULL`
	}

	result, err := s.db.ExecContext(ctx, query, clientID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client %s: %w", clientID, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) queryClients(ctx context.Context, query string, args ...any) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		var legalForm sql.NullString
		var deletedAt sql.NullTime
		if err := rows.Scan(
			&c.ID,
			&c.OwnerID,
			&c.CompanyName,
			&c.EmployeeCount,
			&legalForm,
			&c.Street,
			&c.PostalCode,
			&c.City,
			&c.Country,
			&c.CreatedAt,
			&deletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		c.LegalForm = legalForm.String
		if deletedAt.Valid {
			t := deletedAt.Time
			c.DeletedAt = &t
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return clients, nil
}

func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
		if offset > 0 {
			query += ` OFFSET ?`
			args = append(args, offset)
		}
	}
	return query, args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
