package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

// compile-time check: *Cache must satisfy port.Cache
var _ port.Cache = (*Cache)(nil)

func NewCache(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &Cache{client: rdb}
}

func (c *Cache) GetItemDetails(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, itemKey(key, false)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (c *Cache) GetEtagItemDetails(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, itemKey(key, true)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // cache miss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (c *Cache) SetItemDetails(ctx context.Context, key string, data []byte, ttl time.Duration) {
	log.Printf("creating entry in cache for item %q...", key)

	if err := c.client.Set(ctx, itemKey(key, false), data, ttl).Err(); err != nil {
		log.Printf("redis set failed for item %q: %v", key, err)
	}
}

func (c *Cache) SetEtagItemDetails(ctx context.Context, key string, etag string, ttl time.Duration) {
	if err := c.client.Set(ctx, itemKey(key, true), etag, ttl).Err(); err != nil {
		log.Printf("redis set failed for item etag %q: %v", key, err)
	}
}

func (c *Cache) DeleteItemDetails(ctx context.Context, key string) error {
	log.Printf("deleting entry in cache for item %q...", key)

	if err := c.client.Del(ctx, itemKey(key, false), itemKey(key, true)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (c *Cache) GetStats(ctx context.Context) ([]byte, error) {
	val, err := c.client.Get(ctx, statsKey(false)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (c *Cache) GetEtagStats(ctx context.Context) (string, error) {
	val, err := c.client.Get(ctx, statsKey(true)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // cache miss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (c *Cache) SetStats(ctx context.Context, data []byte, ttl time.Duration) {
	log.Printf("creating entry in cache for stats...")

	if err := c.client.Set(ctx, statsKey(false), data, ttl).Err(); err != nil {
		log.Printf("redis set failed for stats: %v", err)
	}
}

func (c *Cache) SetEtagStats(ctx context.Context, etag string, ttl time.Duration) {
	if err := c.client.Set(ctx, statsKey(true), etag, ttl).Err(); err != nil {
		log.Printf("redis set failed for stats etag: %v", err)
	}
}

func (c *Cache) DeleteStats(ctx context.Context) error {
	log.Printf("deleting entry in cache for stats...")

	if err := c.client.Del(ctx, statsKey(false), statsKey(true)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func itemKey(key string, etag bool) string {
	if etag {
		return "item_etag:" + key
	}
	return "item:" + key
}

func statsKey(etag bool) string {
	if etag {
		return "stats_etag"
	}
	return "stats"
}
