package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

func TestListTransactions_Filter(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.InsertRecords(ctx, CollectionTransactions, testOwner, []model.Record{
		transactionRecord(2, "2024-01-31", "100", "Januar"),
		transactionRecord(3, "2024-02-15", "200", "Februar"),
		transactionRecord(4, "2024-03-01", "300", "März"),
	})
	require.NoError(t, err)

	date := func(s string) *time.Time {
		d, err := time.Parse(dateLayout, s)
		require.NoError(t, err)
		return &d
	}

	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   []string
	}{
		{
			name:   "all, newest first",
			filter: service.TransactionFilter{},
			want:   []string{"März", "Februar", "Januar"},
		},
		{
			name:   "inclusive range",
			filter: service.TransactionFilter{StartDate: date("2024-02-15"), EndDate: date("2024-03-01")},
			want:   []string{"März", "Februar"},
		},
		{
			name:   "open end",
			filter: service.TransactionFilter{StartDate: date("2024-02-01")},
			want:   []string{"März", "Februar"},
		},
		{
			name:   "open start",
			filter: service.TransactionFilter{EndDate: date("2024-01-31")},
			want:   []string{"Januar"},
		},
		{
			name:   "limit",
			filter: service.TransactionFilter{Limit: 1},
			want:   []string{"März"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.ListTransactions(ctx, testOwner, tt.filter)
			require.NoError(t, err)
			got := make([]string, len(txns))
			for i, txn := range txns {
				got[i] = txn.Text
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListTransactions_InvalidRange(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)
	_, err := store.ListTransactions(context.Background(), testOwner,
		service.TransactionFilter{StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestInsertRecords_IdenticalTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	batch := []model.Record{
		transactionRecord(2, "2024-03-15", "-4.50", "Kantine"),
		transactionRecord(3, "2024-03-15", "-4.50", "Kantine"),
		transactionRecord(4, "2024-03-15", "-4.50", "Kantine"),
	}

	inserted, err := store.InsertRecords(ctx, CollectionTransactions, testOwner, batch)
	require.NoError(t, err)
	assert.Len(t, inserted, 3, "identical bookings of one upload are all stored")

	txns, err := store.ListTransactions(ctx, testOwner, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 3)
	hashes := map[string]bool{}
	for _, txn := range txns {
		hashes[txn.Hash] = true
	}
	assert.Len(t, hashes, 3)

	again, err := store.InsertRecords(ctx, CollectionTransactions, testOwner, batch)
	require.NoError(t, err)
	assert.Empty(t, again, "a repeated upload is suppressed")

	more, err := store.InsertRecords(ctx, CollectionTransactions, testOwner, append(batch,
		transactionRecord(5, "2024-03-15", "-4.50", "Kantine")))
	require.NoError(t, err)
	require.Len(t, more, 1, "only the additional booking is new")
	assert.Equal(t, 5, more[0].SourceRow)
}
