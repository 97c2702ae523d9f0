package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mandantenanalyse/internal/model"
	"github.com/Veraticus/mandantenanalyse/internal/service"
)

func setupCheckpointManager(t *testing.T) (*SQLiteStorage, *CheckpointManager, func()) {
	t.Helper()
	store, cleanup := createTestStorage(t)

	seedClients(t, store, testOwner,
		clientRecord(2, "Adler GmbH", "Berlin"),
		clientRecord(3, "Müller GmbH", "Berlin"),
	)
	_, err := store.InsertRecords(context.Background(), CollectionTransactions, testOwner,
		[]model.Record{transactionRecord(2, "2024-03-15", "1234.56", "Miete")})
	require.NoError(t, err)

	manager, err := NewCheckpointManager(store)
	require.NoError(t, err)
	return store, manager, cleanup
}

func TestCheckpointManager_Create(t *testing.T) {
	store, manager, cleanup := setupCheckpointManager(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		errType     error
		name        string
		tag         string
		description string
		wantErr     bool
	}{
		{
			name:        "with tag",
			tag:         "vor-import",
			description: "Before client import",
		},
		{
			name:        "generated tag",
			tag:         "",
			description: "Generated",
		},
		{
			name:    "path traversal",
			tag:     "../invalid",
			wantErr: true,
			errType: ErrInvalidCheckpoint,
		},
		{
			name:    "duplicate tag",
			tag:     "vor-import",
			wantErr: true,
			errType: ErrCheckpointExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := manager.Create(ctx, tt.tag, tt.description)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.errType)
				return
			}

			require.NoError(t, err)
			if tt.tag != "" {
				assert.Equal(t, tt.tag, info.ID)
			} else {
				assert.Contains(t, info.ID, "checkpoint-")
			}
			assert.Equal(t, tt.description, info.Description)
			assert.Greater(t, info.FileSize, int64(0))
			assert.Equal(t, 2, info.Clients())
			assert.Equal(t, 1, info.Transactions())
			assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
			assert.False(t, info.IsAuto)

			dir := filepath.Join(filepath.Dir(store.Path()), "checkpoints")
			_, err = os.Stat(filepath.Join(dir, info.ID+".db"))
			assert.NoError(t, err)
			_, err = os.Stat(filepath.Join(dir, info.ID+".meta.json"))
			assert.NoError(t, err)
		})
	}
}

func TestCheckpointManager_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = NewCheckpointManager(store)
	assert.ErrorIs(t, err, ErrInMemoryDatabase)
}

func TestCheckpointManager_List(t *testing.T) {
	_, manager, cleanup := setupCheckpointManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.Create(ctx, "erster", "first")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = manager.Create(ctx, "zweiter", "second")
	require.NoError(t, err)

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "zweiter", checkpoints[0].ID)
	assert.Equal(t, "erster", checkpoints[1].ID)
}

func TestCheckpointManager_Restore(t *testing.T) {
	store, manager, cleanup := setupCheckpointManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.Create(ctx, "vor-import", "")
	require.NoError(t, err)

	seedClients(t, store, testOwner, clientRecord(4, "Weber AG", "München"))

	require.NoError(t, manager.Restore(ctx, "vor-import"))

	reopened, err := NewSQLiteStorage(store.Path())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	clients, err := reopened.ListClients(ctx, testOwner, service.ClientFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Adler GmbH", "Müller GmbH"}, companyNames(clients))
}

func TestCheckpointManager_RestoreMissing(t *testing.T) {
	_, manager, cleanup := setupCheckpointManager(t)
	defer cleanup()

	err := manager.Restore(context.Background(), "gibt-es-nicht")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestCheckpointManager_Delete(t *testing.T) {
	_, manager, cleanup := setupCheckpointManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.Create(ctx, "weg", "")
	require.NoError(t, err)

	require.NoError(t, manager.Delete(ctx, "weg"))
	assert.ErrorIs(t, manager.Delete(ctx, "weg"), ErrCheckpointNotFound)

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, checkpoints)
}

func TestCheckpointManager_AutoCheckpoint(t *testing.T) {
	_, manager, cleanup := setupCheckpointManager(t)
	defer cleanup()
	ctx := context.Background()

	info, err := manager.AutoCheckpoint(ctx, "import")
	require.NoError(t, err)
	assert.True(t, info.IsAuto)
	assert.Contains(t, info.ID, "auto-import-")
	assert.Equal(t, "Automatic checkpoint before import", info.Description)
}

func TestCheckpointManager_CleanupOldAutoCheckpoints(t *testing.T) {
	_, manager, cleanup := setupCheckpointManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.Create(ctx, "manuell", "kept")
	require.NoError(t, err)
	for i := 0; i < maxAutoCheckpoints+2; i++ {
		_, err := manager.create(ctx, "auto-"+string(rune('a'+i)), "", true)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, manager.cleanupOldAutoCheckpoints(ctx))

	checkpoints, err := manager.List(ctx)
	require.NoError(t, err)

	autos := 0
	ids := make(map[string]bool)
	for _, cp := range checkpoints {
		ids[cp.ID] = true
		if cp.IsAuto {
			autos++
		}
	}
	assert.Equal(t, maxAutoCheckpoints, autos)
	assert.True(t, ids["manuell"])
	assert.False(t, ids["auto-a"], "oldest auto checkpoint is pruned")
	assert.False(t, ids["auto-b"])
	assert.True(t, ids["auto-g"])
}
