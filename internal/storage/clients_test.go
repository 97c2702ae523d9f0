package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mandantenanalyse/internal/common"
	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

func seedClients(t *testing.T, store *SQLiteStorage, owner string, records ...model.Record) []model.Record {
	t.Helper()
	inserted, err := store.InsertRecords(context.Background(), CollectionClients, owner, records)
	require.NoError(t, err)
	require.Len(t, inserted, len(records))
	return inserted
}

func companyNames(clients []model.Client) []string {
	names := make([]string, len(clients))
	for i, c := range clients {
		names[i] = c.CompanyName
	}
	return names
}

func TestListClients(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedClients(t, store, testOwner,
		clientRecord(2, "weber AG", "München"),
		clientRecord(3, "Adler GmbH", "Berlin"),
		clientRecord(4, "Müller GmbH", "Berlin"),
	)
	seedClients(t, store, "berater-2", clientRecord(2, "Fremd GmbH", "Berlin"))

	tests := []struct {
		name   string
		want   []string
		filter service.ClientFilter
	}{
		{
			name:   "all clients ordered by name ignoring case",
			filter: service.ClientFilter{},
			want:   []string{"Adler GmbH", "Müller GmbH", "weber AG"},
		},
		{
			name:   "search by city",
			filter: service.ClientFilter{Search: "berlin"},
			want:   []string{"Adler GmbH", "Müller GmbH"},
		},
		{
			name:   "search by name",
			filter: service.ClientFilter{Search: "weber"},
			want:   []string{"weber AG"},
		},
		{
			name:   "limit and offset",
			filter: service.ClientFilter{Limit: 1, Offset: 1},
			want:   []string{"Müller GmbH"},
		},
		{
			name:   "no match",
			filter: service.ClientFilter{Search: "Hamburg"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients, err := store.ListClients(ctx, testOwner, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, companyNames(clients))
		})
	}
}

func TestClientTrash(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedClients(t, store, testOwner,
		clientRecord(2, "Adler GmbH", "Berlin"),
		clientRecord(3, "Müller GmbH", "Berlin"),
	)
	clients, err := store.ListClients(ctx, testOwner, service.ClientFilter{})
	require.NoError(t, err)
	adler := clients[0]

	require.NoError(t, store.SoftDeleteClient(ctx, testOwner, adler.ID))

	active, err := store.ListClients(ctx, testOwner, service.ClientFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Müller GmbH"}, companyNames(active))

	trash, err := store.ListDeletedClients(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, adler.ID, trash[0].ID)
	assert.True(t, trash[0].Deleted())

	// Deleting twice finds nothing to delete.
	err = store.SoftDeleteClient(ctx, testOwner, adler.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Another owner cannot restore it.
	err = store.RestoreClient(ctx, "berater-2", adler.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.RestoreClient(ctx, testOwner, adler.ID))

	active, err = store.ListClients(ctx, testOwner, service.ClientFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Adler GmbH", "Müller GmbH"}, companyNames(active))
	assert.False(t, active[0].Deleted())

	trash, err = store.ListDeletedClients(ctx, testOwner)
	require.NoError(t, err)
	assert.Empty(t, trash)

	err = store.RestoreClient(ctx, testOwner, adler.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestClientTrash_Arguments(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	assert.ErrorIs(t, store.SoftDeleteClient(ctx, testOwner, ""), ErrEmptyString)
	assert.ErrorIs(t, store.RestoreClient(ctx, "", "id"), ErrEmptyString)
	_, err := store.ListDeletedClients(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)
}
