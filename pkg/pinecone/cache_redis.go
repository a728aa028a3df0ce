package pinecone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrRedisAddressRequired is returned when no Redis address is configured.
var ErrRedisAddressRequired = errors.New("redis address is required")

// RedisCacheConfig configures the Redis cache.
type RedisCacheConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// RedisCache shares index descriptions through Redis. Entries carry a
// server-side expiry matching ExpiresAt.
type RedisCache struct {
	client  rueidis.Client
	options *CacheOptions
}

// NewRedisCache creates a Redis cache via rueidis.
func NewRedisCache(config *RedisCacheConfig, options *CacheOptions) (*RedisCache, error) {
	if config == nil || len(config.Addrs) == 0 {
		return nil, ErrRedisAddressRequired
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  config.Addrs,
		Username:     config.Username,
		Password:     config.Password,
		SelectDB:     config.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return NewRedisCacheFromClient(client, options), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client rueidis.Client, options *CacheOptions) *RedisCache {
	if options == nil {
		options = DefaultCacheOptions()
	}

	return &RedisCache{client: client, options: options}
}

// Get retrieves an entry.
func (c *RedisCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	cmd := c.client.B().Get().Key(c.key(key)).Build()

	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(data, &entry)
	if err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}

	if entry.IsExpired() {
		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores an entry. Entries without an expiry use the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}

	ttl := entry.TTL()
	if entry.ExpiresAt.IsZero() {
		ttl = c.options.TTL
	}

	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = c.client.B().Set().Key(c.key(key)).Value(string(data)).Ex(ttl.Truncate(time.Second) + time.Second).Build()
	} else {
		cmd = c.client.B().Set().Key(c.key(key)).Value(string(data)).Build()
	}

	err = c.client.Do(ctx, cmd).Error()
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Delete removes an entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	cmd := c.client.B().Del().Key(c.key(key)).Build()

	err := c.client.Do(ctx, cmd).Error()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}

	return nil
}

// Clear removes every key under the configured prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64

	for {
		cmd := c.client.B().Scan().Cursor(cursor).Match(c.options.KeyPrefix + "*").Build()

		scan, err := c.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}

		if len(scan.Elements) > 0 {
			del := c.client.B().Del().Key(scan.Elements...).Build()

			err = c.client.Do(ctx, del).Error()
			if err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}

		if scan.Cursor == 0 {
			return nil
		}

		cursor = scan.Cursor
	}
}

// Has reports whether a live entry exists.
func (c *RedisCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close shuts down the client.
func (c *RedisCache) Close() {
	c.client.Close()
}

func (c *RedisCache) key(key string) string {
	return c.options.KeyPrefix + key
}
