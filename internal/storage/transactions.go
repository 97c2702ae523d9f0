package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

const dateLayout = "2006-01-02"

// saveTransactionTx inserts one transaction. It reports false when a
// transaction with the same hash already exists.
func (s *SQLiteStorage) saveTransactionTx(ctx context.Context, q queryable, t *model.Transaction) (bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, owner_id, hash, booking_date, amount, booking_text, account,
			counter_account, currency, debit_credit, reference, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.OwnerID,
		t.Hash,
		t.BookingDate.Format(dateLayout),
		t.Amount,
		t.Text,
		nullString(t.Account),
		nullString(t.CounterAccount),
		t.Currency,
		nullString(t.DebitCredit),
		nullString(t.Reference),
		t.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}

// ListTransactions returns an owner's transactions, newest booking first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, ownerID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, ErrInvalidDateRange
	}

	query := `
		SELECT id, owner_id, hash, booking_date, amount, booking_text, account,
			counter_account, currency, debit_credit, reference, created_at
		FROM transactions
		WHERE owner_id = ?`
	args := []any{ownerID}

	if filter.StartDate != nil {
		query += ` AND booking_date >= ?`
		args = append(args, filter.StartDate.Format(dateLayout))
	}
	if filter.EndDate != nil {
		query += ` AND booking_date <= ?`
		args = append(args, filter.EndDate.Format(dateLayout))
	}

	query += ` ORDER BY booking_date DESC, created_at, id`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var account, counterAccount, debitCredit, reference sql.NullString
		if err := rows.Scan(
			&t.ID,
			&t.OwnerID,
			&t.Hash,
			&t.BookingDate,
			&t.Amount,
			&t.Text,
			&account,
			&counterAccount,
			&t.Currency,
			&debitCredit,
			&reference,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Account = account.String
		t.CounterAccount = counterAccount.String
		t.DebitCredit = debitCredit.String
		t.Reference = reference.String
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}
