package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSummaryCache implements SummaryCache using Redis. TTL handling is
// delegated to Redis key expiry.
type RedisSummaryCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	logger     *zap.Logger
}

// RedisSummaryCacheOption is a functional option for configuring the cache
type RedisSummaryCacheOption func(*RedisSummaryCache)

// WithRedisLogger sets the logger for the cache
func WithRedisLogger(logger *zap.Logger) RedisSummaryCacheOption {
	return func(c *RedisSummaryCache) {
		c.logger = logger
	}
}

// NewRedisSummaryCache creates a new Redis-backed summary cache
func NewRedisSummaryCache(cfg RedisConfig, opts ...RedisSummaryCacheOption) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisSummaryCache{
		client:     client,
		ownsClient: true,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisSummaryCacheWithClient creates a cache with an existing Redis client.
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisSummaryCacheWithClient(client *redis.Client, opts ...RedisSummaryCacheOption) *RedisSummaryCache {
	cache := &RedisSummaryCache{
		client:     client,
		ownsClient: false,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get returns the cached payload for key, if present and unexpired
func (c *RedisSummaryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("summary cache miss", zap.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get summary from cache: %w", err)
	}
	return data, true, nil
}

// Set stores payload under key for ttl
func (c *RedisSummaryCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set summary in cache: %w", err)
	}
	return nil
}

// Delete removes key
func (c *RedisSummaryCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete summary from cache: %w", err)
	}
	return nil
}

// Close closes the Redis client if this cache owns it
func (c *RedisSummaryCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
