package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-evidence-sync/internal/domain"
)

func setupTestRedis(t *testing.T) (*RedisFingerprints, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisFingerprints("redis://"+s.Addr(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, s
}

func record(description string) domain.EvidenceRecord {
	return domain.EvidenceRecord{
		EvidenceType: domain.GeneSummary.EvidenceType(),
		Description:  domain.StringPtr(description),
		Gene:         domain.GeneRef{HugoSymbol: "BRAF"},
	}
}

func TestRedisFingerprints_ChangedAndRemember(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	changed, err := store.Changed(ctx, "gs-1", record("v1"))
	require.NoError(t, err)
	assert.True(t, changed, "unknown id is always changed")

	require.NoError(t, store.Remember(ctx, "gs-1", record("v1")))

	changed, err = store.Changed(ctx, "gs-1", record("v1"))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = store.Changed(ctx, "gs-1", record("v2"))
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestRedisFingerprints_Forget(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Remember(ctx, "a", record("x")))
	require.NoError(t, store.Remember(ctx, "b", record("y")))
	assert.True(t, s.Exists("evidence:fp:a"))

	require.NoError(t, store.Forget(ctx, "a", "b"))
	assert.False(t, s.Exists("evidence:fp:a"))
	assert.False(t, s.Exists("evidence:fp:b"))

	require.NoError(t, store.Forget(ctx))
}

func TestRedisFingerprints_Expiry(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Remember(ctx, "gs-1", record("v1")))
	s.FastForward(2 * time.Hour)

	changed, err := store.Changed(ctx, "gs-1", record("v1"))
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestNewRedisFingerprints_BadURL(t *testing.T) {
	_, err := NewRedisFingerprints("not-a-url", time.Hour)
	assert.Error(t, err)
}

func TestFingerprint_Stable(t *testing.T) {
	a, err := Fingerprint(record("same"))
	require.NoError(t, err)
	b, err := Fingerprint(record("same"))
	require.NoError(t, err)
	c, err := Fingerprint(record("other"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestNop(t *testing.T) {
	var f Fingerprints = Nop{}
	changed, err := f.Changed(context.Background(), "x", record("v"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, f.Remember(context.Background(), "x", record("v")))
	assert.NoError(t, f.Forget(context.Background(), "x"))
}
