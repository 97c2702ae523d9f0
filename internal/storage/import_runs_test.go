package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

func TestImportRuns(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	first := &model.ImportRun{
		SessionID:  "s-1",
		OwnerID:    testOwner,
		Kind:       "client",
		Filename:   "mandanten.xlsx",
		Policy:     "skip",
		Total:      3,
		Imported:   2,
		Skipped:    1,
		StartedAt:  base,
		FinishedAt: base.Add(time.Minute),
	}
	second := &model.ImportRun{
		SessionID:  "s-2",
		OwnerID:    testOwner,
		Kind:       "transaction",
		Filename:   "umsaetze.csv",
		Policy:     "abort",
		Total:      10,
		Imported:   10,
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Minute),
	}

	require.NoError(t, store.SaveImportRun(ctx, first))
	require.NoError(t, store.SaveImportRun(ctx, second))
	assert.NotEmpty(t, first.ID)
	require.NoError(t, store.SaveImportRun(ctx, &model.ImportRun{
		SessionID: "s-3", OwnerID: "berater-2", Kind: "client", Policy: "skip",
	}))

	runs, err := store.ListImportRuns(ctx, testOwner, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "s-2", runs[0].SessionID)
	assert.Equal(t, "s-1", runs[1].SessionID)
	assert.Equal(t, "mandanten.xlsx", runs[1].Filename)
	assert.Equal(t, 2, runs[1].Imported)
	assert.Equal(t, 1, runs[1].Skipped)
	assert.True(t, runs[1].StartedAt.Equal(base))

	limited, err := store.ListImportRuns(ctx, testOwner, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "s-2", limited[0].SessionID)
}

func TestSaveImportRun_Invalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveImportRun(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.SaveImportRun(ctx, &model.ImportRun{Kind: "client"}), ErrEmptyString)
}
