package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtg-lucifer/sahotsava-be/internal/storage"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *TokenCache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
}

func TestTokenCache_SetGet(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, storage.RefreshKey("u-1"), "tok", time.Hour))

	got, err := cache.Get(ctx, storage.RefreshKey("u-1"))
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
}

func TestTokenCache_MissIsSentinel(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "refresh:absent")
	assert.ErrorIs(t, err, storage.ErrCacheMiss)
}

func TestTokenCache_SetOverwrites(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, storage.RefreshKey("u-1"), "old", time.Hour))
	require.NoError(t, cache.Set(ctx, storage.RefreshKey("u-1"), "new", time.Hour))

	got, err := cache.Get(ctx, storage.RefreshKey("u-1"))
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestTokenCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	mr, cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, storage.VerificationKey("tok"), "u-1", time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, storage.VerificationKey("tok"))
	assert.ErrorIs(t, err, storage.ErrCacheMiss)
}

func TestTokenCache_DeleteIdempotent(t *testing.T) {
	t.Parallel()

	_, cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, storage.RefreshKey("u-1"), "tok", time.Hour))
	require.NoError(t, cache.Delete(ctx, storage.RefreshKey("u-1")))
	require.NoError(t, cache.Delete(ctx, storage.RefreshKey("u-1")))

	_, err := cache.Get(ctx, storage.RefreshKey("u-1"))
	assert.ErrorIs(t, err, storage.ErrCacheMiss)
}
