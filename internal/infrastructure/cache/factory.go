package cache

import (
	"fmt"

	appfinance "github.com/clientdesk/backend/internal/application/finance"
	"github.com/clientdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SummaryCacheFactory creates summary caches based on configuration
type SummaryCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SummaryCacheFactoryOption is a functional option for configuring the factory
type SummaryCacheFactoryOption func(*SummaryCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true (allow fallback)
func WithInMemoryFallback(allow bool) SummaryCacheFactoryOption {
	return func(f *SummaryCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSummaryCacheFactory creates a new factory
func NewSummaryCacheFactory(cfg config.RedisConfig, opts ...SummaryCacheFactoryOption) *SummaryCacheFactory {
	f := &SummaryCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true, // Default to allowing fallback
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed summary cache
func (f *SummaryCacheFactory) CreateRedisCache() (appfinance.SummaryCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	c, err := NewRedisSummaryCache(redisCfg, WithRedisLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis summary cache: %w", err)
	}

	return c, nil
}

// CreateInMemoryCache creates an in-memory summary cache
// WARNING: In-memory caches do not share invalidation across process
// instances, so replicas may serve a stale summary until TTL expiry
func (f *SummaryCacheFactory) CreateInMemoryCache() appfinance.SummaryCache {
	return NewInMemorySummaryCache(WithInMemoryLogger(f.logger))
}

// CreateCache creates a summary cache for the configured backend. When the
// backend is "redis" and Redis is unreachable, it falls back to the in-memory
// cache unless fallback has been disabled
func (f *SummaryCacheFactory) CreateCache(backend string) (appfinance.SummaryCache, error) {
	if backend != "redis" {
		f.logger.Info("using in-memory summary cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis summary cache")
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for summary cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory summary cache. "+
		"Replicas may serve stale summaries until TTL expiry.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}

// Compile-time interface checks
var (
	_ appfinance.SummaryCache = (*RedisSummaryCache)(nil)
	_ appfinance.SummaryCache = (*InMemorySummaryCache)(nil)
)
