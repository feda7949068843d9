package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-evidence-sync/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RecordAndBatch(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first := &Entry{
		BatchID:     "batch-1",
		HugoSymbol:  "BRAF",
		Path:        "mutations/0/name",
		Kind:        "MUTATION_NAME_CHANGE",
		Operation:   OperationUpsert,
		EvidenceIDs: []string{"me-onc", "me-eff"},
		Status:      StatusSucceeded,
	}
	require.NoError(t, store.Record(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &Entry{
		BatchID:    "batch-1",
		HugoSymbol: "BRAF",
		Operation:  OperationDelete,
		Status:     StatusFailed,
		Error:      "backend unavailable",
	}
	require.NoError(t, store.Record(ctx, second))

	entries, err := store.Batch(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"me-onc", "me-eff"}, entries[0].EvidenceIDs)
	assert.Equal(t, OperationUpsert, entries[0].Operation)
	assert.Empty(t, entries[1].EvidenceIDs)
	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.Equal(t, "backend unavailable", entries[1].Error)
}

func TestSQLiteStore_List(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, hugo := range []string{"BRAF", "EGFR", "BRAF"} {
		require.NoError(t, store.Record(ctx, &Entry{
			BatchID:    hugo + "-batch",
			HugoSymbol: hugo,
			Operation:  OperationGeneType,
			Status:     StatusSucceeded,
		}))
	}

	all, err := store.List(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "BRAF", all[0].HugoSymbol)
	assert.Greater(t, all[0].ID, all[1].ID)

	braf, err := store.List(ctx, "BRAF", 10, 0)
	require.NoError(t, err)
	assert.Len(t, braf, 2)

	page, err := store.List(ctx, "", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "EGFR", page[0].HugoSymbol)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSQLiteStore_EmptyBatch(t *testing.T) {
	store := newTestSQLiteStore(t)

	entries, err := store.Batch(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpen_SQLite(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)

	store, err := Open(context.Background(), domain.LedgerConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	}, logger)
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*SQLiteStore)
	assert.True(t, ok)

	_, err = Open(context.Background(), domain.LedgerConfig{Driver: "oracle"}, logger)
	assert.Error(t, err)
}
