package rating

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/luckyroll/casino/internal/redis"
	"github.com/luckyroll/casino/pkg/utils"
	"github.com/redis/rueidis"
)

const (
	// KeyPrefix namespaces cached leaderboards.
	KeyPrefix = "rating"

	scanBatchSize = 500
)

// Cache stores built leaderboards for a short time.
type Cache interface {
	Get(ctx context.Context, key string) ([]Entry, bool, error)
	Set(ctx context.Context, key string, entries []Entry) error
	InvalidateChat(ctx context.Context, chatID int64) error
	InvalidateAll(ctx context.Context) error
}

// CacheKey names the cached leaderboard of a query and bucket.
func CacheKey(q Query, bucket string) string {
	return fmt.Sprintf("%s:%s%s:%s:%s:%s", KeyPrefix, chatPrefix(q.ChatID), q.Game, q.Period, q.Criterion, bucket)
}

func chatPrefix(chatID int64) string {
	return fmt.Sprintf("%d:", chatID)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]Entry, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, []Entry) error         { return nil }
func (NopCache) InvalidateChat(context.Context, int64) error        { return nil }
func (NopCache) InvalidateAll(context.Context) error                { return nil }

// MemoryCache keeps leaderboards in process.
type MemoryCache struct {
	entries *utils.TTLMap[string, []Entry]
}

// NewMemoryCache creates a process local cache. Call Close when done.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: utils.NewTTLMap[string, []Entry](ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]Entry, bool, error) {
	entries, ok := c.entries.Get(key)
	return entries, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, entries []Entry) error {
	c.entries.Set(key, entries)
	return nil
}

func (c *MemoryCache) InvalidateChat(_ context.Context, chatID int64) error {
	prefix := KeyPrefix + ":" + chatPrefix(chatID)
	c.entries.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})

	return nil
}

func (c *MemoryCache) InvalidateAll(_ context.Context) error {
	c.entries.DeleteFunc(func(string) bool { return true })
	return nil
}

// Close stops the background expiry.
func (c *MemoryCache) Close() {
	c.entries.Close()
}

// RedisCache shares leaderboards between bot processes as sonic encoded JSON.
type RedisCache struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache on the given client.
func NewRedisCache(client rueidis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Entry, bool, error) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var entries []Entry
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	return entries, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, entries []Entry) error {
	data, err := sonic.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(data)).Px(c.ttl).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

func (c *RedisCache) InvalidateChat(ctx context.Context, chatID int64) error {
	return c.deleteMatching(ctx, KeyPrefix+":"+chatPrefix(chatID)+"*")
}

func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	return c.deleteMatching(ctx, KeyPrefix+":*")
}

// deleteMatching walks the keyspace with SCAN and deletes each batch of matches.
func (c *RedisCache) deleteMatching(ctx context.Context, pattern string) error {
	var cursor uint64

	for {
		entry, err := c.client.Do(ctx,
			c.client.B().Scan().Cursor(cursor).Match(pattern).Count(scanBatchSize).Build(),
		).AsScanEntry()
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", pattern, err)
		}

		if len(entry.Elements) > 0 {
			err := c.client.Do(ctx, c.client.B().Del().Key(entry.Elements...).Build()).Error()
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", pattern, err)
			}
		}

		if entry.Cursor == 0 {
			return nil
		}

		cursor = entry.Cursor
	}
}

// NewCache picks the cache backing the rating builder. Redis is used when it
// is enabled, a process local map otherwise; a TTL of zero disables caching.
// The returned function releases the cache.
func NewCache(ttl time.Duration, manager *redis.Manager) (Cache, func(), error) {
	if ttl <= 0 {
		return NopCache{}, func() {}, nil
	}

	if manager != nil && manager.Enabled() {
		client, err := manager.GetClient(redis.RatingCacheDBIndex)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get rating cache client: %w", err)
		}

		return NewRedisCache(client, ttl), func() {}, nil
	}

	cache := NewMemoryCache(ttl)

	return cache, cache.Close, nil
}
