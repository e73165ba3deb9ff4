package repositories

import (
	"context"
	"testing"
	"time"

	"hobbyhub/app/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupCache(t *testing.T) (*CachedStorage, *MemStorage, *miniredis.Miniredis, *observer.ObservedLogs) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	core, logs := observer.New(zapcore.WarnLevel)

	inner := NewMemStorage(false)
	cached := NewCachedStorage(inner, client, time.Minute, zap.New(core).Sugar())
	t.Cleanup(func() { client.Close() })
	return cached, inner, mr, logs
}

func TestCachedStorage(t *testing.T) {
	runStorageContract(t, func(t *testing.T) Storage {
		cached, _, _, _ := setupCache(t)
		return cached
	})
}

func TestCachedStorageServesFromCache(t *testing.T) {
	ctx := context.Background()
	cached, inner, mr, _ := setupCache(t)
	post := newPost(t, cached, &models.InsertPost{Title: strPtr("Cached")})

	_, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(postCacheKey(post.ID)))
	assert.Equal(t, time.Minute, mr.TTL(postCacheKey(post.ID)))

	// A write that skips the cache is not seen until the key expires.
	_, err = inner.UpdatePost(ctx, post.ID, &models.UpdatePost{Title: strPtr("Changed underneath")})
	require.NoError(t, err)

	stale, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cached", stale.Title)

	mr.FastForward(2 * time.Minute)
	fresh, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed underneath", fresh.Title)
}

func TestCachedStorageInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	cached, _, mr, _ := setupCache(t)
	post := newPost(t, cached, &models.InsertPost{Title: strPtr("Vote")})
	key := postCacheKey(post.ID)

	_, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	_, err = cached.UpvotePost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	got, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)

	_, err = cached.UpdatePost(ctx, post.ID, &models.UpdatePost{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	_, err = cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	deleted, err := cached.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists(key))

	_, err = cached.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists(key), "misses are not cached")
}

func TestCachedStorageDiscardsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	cached, _, mr, logs := setupCache(t)
	post := newPost(t, cached, &models.InsertPost{Title: strPtr("Real")})

	require.NoError(t, mr.Set(postCacheKey(post.ID), "{not json"))

	got, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Real", got.Title)
	assert.Equal(t, 1, logs.FilterMessage("discarding unreadable cache entry").Len())
}

func TestCachedStorageFallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	cached, _, mr, logs := setupCache(t)
	post := newPost(t, cached, &models.InsertPost{Title: strPtr("Resilient")})

	mr.Close()

	got, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Resilient", got.Title)

	upvoted, err := cached.UpvotePost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, upvoted.Upvotes)

	assert.NotZero(t, logs.FilterMessage("cache read failed").Len())
	assert.NotZero(t, logs.FilterMessage("cache invalidation failed").Len())
}

// interleavedStorage runs a write once, between the cache miss and the
// wrapped store read of a lookup.
type interleavedStorage struct {
	Storage
	during func()
}

func (s *interleavedStorage) GetPostByID(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.Storage.GetPostByID(ctx, id)
	if s.during != nil {
		during := s.during
		s.during = nil
		during()
	}
	return post, err
}

func TestCachedStorageSkipsFillWhenWriteOverlaps(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &interleavedStorage{Storage: NewMemStorage(false)}
	cached := NewCachedStorage(inner, client, time.Minute, zap.NewNop().Sugar())
	post := newPost(t, cached, &models.InsertPost{Title: strPtr("Contested")})

	inner.during = func() {
		_, err := cached.UpvotePost(ctx, post.ID)
		require.NoError(t, err)
	}

	stale, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stale.Upvotes, "the overlapping read returns what it saw")
	assert.False(t, mr.Exists(postCacheKey(post.ID)), "the pre-write row must not be cached")

	fresh, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Upvotes)
	assert.True(t, mr.Exists(postCacheKey(post.ID)))
}
