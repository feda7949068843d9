package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("ledger"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("PostgreSQL container unavailable: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := NewPostgresStoreFromURL(ctx, dsn, true, logger)
	require.NoError(t, err)
	defer store.Close()

	entry := &Entry{
		BatchID:     "batch-1",
		HugoSymbol:  "EGFR",
		Path:        "mutations/0/tumors/0/summary",
		Kind:        "TUMOR_TYPE_SUMMARY",
		Operation:   OperationUpsert,
		EvidenceIDs: []string{"ts-1"},
		Status:      StatusSucceeded,
	}
	require.NoError(t, store.Record(ctx, entry))
	assert.NotZero(t, entry.ID)

	entries, err := store.Batch(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"ts-1"}, entries[0].EvidenceIDs)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
