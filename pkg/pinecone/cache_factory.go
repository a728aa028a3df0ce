package pinecone

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// CacheType names a shared description cache backend.
type CacheType string

const (
	// CacheTypeMemory keeps descriptions in the current process.
	CacheTypeMemory CacheType = "memory"
	// CacheTypeNATS shares descriptions through a JetStream key-value bucket.
	CacheTypeNATS CacheType = "nats"
	// CacheTypeRedis shares descriptions through Redis.
	CacheTypeRedis CacheType = "redis"
	// CacheTypeNone disables sharing; every handle describes its index itself.
	CacheTypeNone CacheType = "none"
)

// Cache configuration errors.
var (
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrRedisConfigRequired   = errors.New("redis configuration required for redis cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheConfig selects and configures the backend returned by NewCacheFromConfig.
type CacheConfig struct {
	Type   CacheType
	Memory *MemoryCacheConfig
	NATS   *NATSKVConfig
	Redis  *RedisCacheConfig

	// LocalLayer, when positive, puts an in-process cache of that many entries
	// in front of a NATS or Redis backend.
	LocalLayer int

	// Options apply to remote backends. Nil means DefaultCacheOptions.
	Options *CacheOptions
}

// MemoryCacheConfig bounds the in-process cache.
type MemoryCacheConfig struct {
	MaxSize int
}

// DefaultCacheConfig returns an in-process cache of DefaultCacheSize entries.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:    CacheTypeMemory,
		Memory:  &MemoryCacheConfig{MaxSize: constants.DefaultCacheSize},
		Options: DefaultCacheOptions(),
	}
}

// ParseCacheType validates a cache type name. An empty name disables caching.
func ParseCacheType(s string) (CacheType, error) {
	cacheType := CacheType(strings.ToLower(strings.TrimSpace(s)))

	switch cacheType {
	case CacheTypeMemory, CacheTypeNATS, CacheTypeRedis, CacheTypeNone:
		return cacheType, nil
	case "":
		return CacheTypeNone, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCacheType, s)
	}
}

// NewCacheFromConfig builds the backend described by config. A nil config
// yields DefaultCacheConfig.
func NewCacheFromConfig(ctx context.Context, config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	options := config.Options
	if options == nil {
		options = DefaultCacheOptions()
	}

	var (
		remote Cache
		err    error
	)

	switch config.Type {
	case CacheTypeMemory:
		return NewMemoryCacheFromConfig(config.Memory)
	case CacheTypeNone:
		return NewNoOpCache(), nil
	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		remote, err = NewNATSKVCache(ctx, config.NATS, options)
	case CacheTypeRedis:
		if config.Redis == nil {
			return nil, ErrRedisConfigRequired
		}

		remote, err = NewRedisCache(config.Redis, options)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}

	if err != nil {
		return nil, err
	}

	if config.LocalLayer > 0 {
		return NewCacheChain(NewMemoryCache(config.LocalLayer), remote), nil
	}

	return remote, nil
}

// NewMemoryCacheFromConfig creates an in-process cache. A nil config uses
// DefaultCacheSize.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) (Cache, error) {
	maxSize := constants.DefaultCacheSize
	if config != nil && config.MaxSize > 0 {
		maxSize = config.MaxSize
	}

	return NewMemoryCache(maxSize), nil
}

// NoOpCache stores nothing. It is the default when no cache is configured.
type NoOpCache struct{}

// NewNoOpCache creates a no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns ErrCacheDisabled.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error { return nil }

func (c *NoOpCache) Delete(ctx context.Context, key string) error { return nil }

func (c *NoOpCache) Clear(ctx context.Context) error { return nil }

func (c *NoOpCache) Has(ctx context.Context, key string) bool { return false }

// CacheBuilder assembles a CacheConfig step by step.
//
//	cache, err := pinecone.NewCacheBuilder().
//		WithType(pinecone.CacheTypeRedis).
//		WithRedisConfig(&pinecone.RedisCacheConfig{Addrs: []string{"localhost:6379"}}).
//		WithLocalLayer(64).
//		Build(ctx)
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder starts from an in-process cache with default options.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{
		config: &CacheConfig{
			Type:    CacheTypeMemory,
			Options: DefaultCacheOptions(),
		},
	}
}

func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

func (b *CacheBuilder) WithMemoryConfig(maxSize int) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{MaxSize: maxSize}

	return b
}

func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.NATS = config

	return b
}

func (b *CacheBuilder) WithRedisConfig(config *RedisCacheConfig) *CacheBuilder {
	b.config.Redis = config

	return b
}

// WithLocalLayer fronts a remote backend with an in-process cache.
func (b *CacheBuilder) WithLocalLayer(maxSize int) *CacheBuilder {
	b.config.LocalLayer = maxSize

	return b
}

func (b *CacheBuilder) WithOptions(options *CacheOptions) *CacheBuilder {
	b.config.Options = options

	return b
}

// Build creates the configured cache.
func (b *CacheBuilder) Build(ctx context.Context) (Cache, error) {
	return NewCacheFromConfig(ctx, b.config)
}

// CacheChain layers caches, fastest first. Reads stop at the first hit and
// copy it into the faster layers; writes go to every layer.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain creates a chain over caches, in lookup order.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{caches: caches}
}

func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			continue
		}

		for _, faster := range c.caches[:i] {
			_ = faster.Set(ctx, key, entry)
		}

		return entry, nil
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set writes to every layer. Failures are collected into one
// *multierror.Error; the healthy layers are still written.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return c.each(func(cache Cache) error { return cache.Set(ctx, key, entry) })
}

func (c *CacheChain) Delete(ctx context.Context, key string) error {
	return c.each(func(cache Cache) error { return cache.Delete(ctx, key) })
}

func (c *CacheChain) Clear(ctx context.Context) error {
	return c.each(func(cache Cache) error { return cache.Clear(ctx) })
}

func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

// Close releases the connections held by remote layers.
func (c *CacheChain) Close() {
	for _, cache := range c.caches {
		if closer, ok := cache.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}

func (c *CacheChain) each(fn func(Cache) error) error {
	var result *multierror.Error

	for _, cache := range c.caches {
		if err := fn(cache); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
