package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hobbyhub/app/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedStorage puts a redis cache-aside layer in front of post lookups.
// Every write that can change a post drops its key and bumps a per-post
// version. A lookup only fills the cache if that version did not move while
// it was reading the wrapped store, so a read overlapping a write cannot
// park the old row in redis. Redis failures are logged and the request falls
// through to the wrapped store.
type CachedStorage struct {
	Storage
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewCachedStorage wraps inner with a redis cache.
func NewCachedStorage(inner Storage, client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *CachedStorage {
	return &CachedStorage{Storage: inner, client: client, ttl: ttl, logger: logger}
}

// NewRedisClient parses a redis:// url or a bare host:port and checks the
// connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return client, nil
}

func postCacheKey(id int) string {
	return fmt.Sprintf("hobbyhub:%s%d", PostKeyPrefix, id)
}

func postVersionKey(id int) string {
	return fmt.Sprintf("hobbyhub:version:%s%d", PostKeyPrefix, id)
}

func (s *CachedStorage) GetPostByID(ctx context.Context, id int) (*models.Post, error) {
	key := postCacheKey(id)

	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var post models.Post
		if jsonErr := json.Unmarshal(data, &post); jsonErr == nil {
			return &post, nil
		}
		s.logger.Warnw("discarding unreadable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		s.logger.Warnw("cache read failed", "key", key, "error", err)
	}

	var (
		post     *models.Post
		innerErr error
		loaded   bool
	)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		post, innerErr = s.Storage.GetPostByID(ctx, id)
		loaded = true
		if innerErr != nil {
			return nil
		}
		data, err := json.Marshal(post)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, postVersionKey(id))

	switch {
	case errors.Is(err, redis.TxFailedErr):
		s.logger.Debugw("post changed during lookup, not caching", "key", key)
	case err != nil:
		s.logger.Warnw("cache write failed", "key", key, "error", err)
	}
	if !loaded {
		post, innerErr = s.Storage.GetPostByID(ctx, id)
	}
	if innerErr != nil {
		return nil, innerErr
	}
	return post, nil
}

func (s *CachedStorage) UpdatePost(ctx context.Context, id int, update *models.UpdatePost) (*models.Post, error) {
	post, err := s.Storage.UpdatePost(ctx, id, update)
	s.invalidate(ctx, id)
	return post, err
}

func (s *CachedStorage) UpvotePost(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.Storage.UpvotePost(ctx, id)
	s.invalidate(ctx, id)
	return post, err
}

func (s *CachedStorage) DeletePost(ctx context.Context, id int) (bool, error) {
	deleted, err := s.Storage.DeletePost(ctx, id)
	s.invalidate(ctx, id)
	return deleted, err
}

// Close closes the wrapped store and the redis client.
func (s *CachedStorage) Close() error {
	return errors.Join(s.Storage.Close(), s.client.Close())
}

func (s *CachedStorage) invalidate(ctx context.Context, id int) {
	versionKey := postVersionKey(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, postCacheKey(id))
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, s.ttl)
		return nil
	})
	if err != nil {
		s.logger.Warnw("cache invalidation failed", "id", id, "error", err)
	}
}
