package pinecone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key/value cache.
type NATSKVConfig struct {
	// URL of the NATS server, e.g. nats://127.0.0.1:4222.
	URL string
	// Bucket is created when missing. Defaults to pinecone-index-hosts.
	Bucket string
	// CredentialsFile is an optional NATS user credentials file.
	CredentialsFile string
	// Timeout bounds connecting to the server.
	Timeout time.Duration
}

// NATSKVCache shares index descriptions between processes through a
// JetStream key/value bucket.
type NATSKVCache struct {
	kv      jetstream.KeyValue
	conn    *nats.Conn
	options *CacheOptions
}

// NewNATSKVCache connects to NATS and opens (or creates) the bucket.
func NewNATSKVCache(ctx context.Context, config *NATSKVConfig, options *CacheOptions) (*NATSKVCache, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSConfigRequired
	}

	if options == nil {
		options = DefaultCacheOptions()
	}

	natsOpts := []nats.Option{nats.Name(constants.DefaultUserAgent)}
	if config.CredentialsFile != "" {
		natsOpts = append(natsOpts, nats.UserCredentials(config.CredentialsFile))
	}

	if config.Timeout > 0 {
		natsOpts = append(natsOpts, nats.Timeout(config.Timeout))
	}

	conn, err := nats.Connect(config.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "pinecone index descriptions",
		TTL:         options.TTL,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to open KV bucket %s: %w", bucket, err)
	}

	cache := NewNATSKVCacheFromKV(kv, options)
	cache.conn = conn

	return cache, nil
}

// NewNATSKVCacheFromKV wraps an already opened bucket. The caller keeps
// ownership of the underlying connection.
func NewNATSKVCacheFromKV(kv jetstream.KeyValue, options *CacheOptions) *NATSKVCache {
	if options == nil {
		options = DefaultCacheOptions()
	}

	return &NATSKVCache{kv: kv, options: options}
}

// Get retrieves an entry.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(ctx, natsKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("nats kv get %s: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("nats kv decode %s: %w", key, err)
	}

	if entry.IsExpired() {
		_ = c.kv.Delete(ctx, natsKey(key))

		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores an entry.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("nats kv encode %s: %w", key, err)
	}

	_, err = c.kv.Put(ctx, natsKey(key), data)
	if err != nil {
		return fmt.Errorf("nats kv put %s: %w", key, err)
	}

	return nil
}

// Delete removes an entry.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, natsKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("nats kv delete %s: %w", key, err)
	}

	return nil
}

// Clear removes every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("nats kv keys: %w", err)
	}

	for _, key := range keys {
		err = c.kv.Delete(ctx, key)
		if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("nats kv delete %s: %w", key, err)
		}
	}

	return nil
}

// Has reports whether a live entry exists.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close closes the connection when the cache opened it.
func (c *NATSKVCache) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// natsKey maps a cache key onto the characters NATS KV accepts. Only the ':'
// separator becomes '=', so "env:idx" and "env_idx" stay distinct.
func natsKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '/':
			return r
		case r == ':':
			return '='
		default:
			return '_'
		}
	}, key)
}
