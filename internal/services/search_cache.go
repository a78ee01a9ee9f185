// internal/services/search_cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/models"
	"github.com/javajoker/party-props-backend/internal/utils"
)

const searchCacheVersionKey = "listings:search:version"

// SearchCache memoizes discovery results. Invalidate makes every earlier entry unreachable.
// A search resolves its key once, before querying the store, and uses that key for both Get
// and Set, so a result computed before an invalidation is never stored under the new generation.
// Cache failures are logged and treated as misses.
type SearchCache interface {
	// Key returns false when the query cannot be cached right now.
	Key(ctx context.Context, q database.Query) (string, bool)
	Get(ctx context.Context, key string) ([]models.Listing, bool)
	Set(ctx context.Context, key string, listings []models.Listing)
	Invalidate(ctx context.Context) error
}

func NewSearchCache(client *redis.Client, ttl time.Duration) SearchCache {
	if client == nil || ttl <= 0 {
		return NoopSearchCache{}
	}
	return NewRedisSearchCache(client, ttl)
}

type NoopSearchCache struct{}

func (NoopSearchCache) Key(context.Context, database.Query) (string, bool) { return "", false }
func (NoopSearchCache) Get(context.Context, string) ([]models.Listing, bool) {
	return nil, false
}
func (NoopSearchCache) Set(context.Context, string, []models.Listing) {}
func (NoopSearchCache) Invalidate(context.Context) error              { return nil }

// RedisSearchCache keys entries by a generation counter plus a hash of the query, so bumping
// the counter invalidates everything without a key scan.
type RedisSearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSearchCache(client *redis.Client, ttl time.Duration) *RedisSearchCache {
	return &RedisSearchCache{client: client, ttl: ttl}
}

// Key reads the current generation. Call it before running the query.
func (c *RedisSearchCache) Key(ctx context.Context, q database.Query) (string, bool) {
	generation, err := c.client.Get(ctx, searchCacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		logrus.WithError(err).Warn("Search cache unavailable")
		return "", false
	}
	key, err := searchCacheKey(generation, q)
	if err != nil {
		return "", false
	}
	return key, true
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) ([]models.Listing, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).Warn("Search cache read failed")
		}
		return nil, false
	}

	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		logrus.WithError(err).Warn("Discarding corrupt search cache entry")
		return nil, false
	}
	return listings, true
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, listings []models.Listing) {
	data, err := json.Marshal(listings)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Search cache write failed")
	}
}

func (c *RedisSearchCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, searchCacheVersionKey).Err(); err != nil {
		return fmt.Errorf("failed to bump search cache generation: %w", err)
	}
	return nil
}

func searchCacheKey(generation int64, q database.Query) (string, error) {
	encoded, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("listings:search:%d:%s", generation, utils.HashBytes(encoded)), nil
}
