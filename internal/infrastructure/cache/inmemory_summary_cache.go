package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// InMemorySummaryCache implements SummaryCache using in-memory storage.
// Suitable for single-instance deployments; multi-instance deployments
// should use the Redis backend so invalidation is shared.
type InMemorySummaryCache struct {
	entries sync.Map // map[string]*summaryEntry
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

// summaryEntry wraps a cached payload with its expiration time
type summaryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *summaryEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemorySummaryCacheOption is a functional option for configuring the cache
type InMemorySummaryCacheOption func(*InMemorySummaryCache)

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemorySummaryCacheOption {
	return func(c *InMemorySummaryCache) {
		c.logger = logger
	}
}

// NewInMemorySummaryCache creates a new in-memory summary cache
func NewInMemorySummaryCache(opts ...InMemorySummaryCacheOption) *InMemorySummaryCache {
	cache := &InMemorySummaryCache{
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get returns the cached payload for key, if present and unexpired
func (c *InMemorySummaryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*summaryEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.payload, true, nil
		}
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("summary cache miss", zap.String("key", key))
	return nil, false, nil
}

// Set stores payload under key for ttl
func (c *InMemorySummaryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	c.entries.Store(key, &summaryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes key
func (c *InMemorySummaryCache) Delete(_ context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}

// Stats returns hit/miss counters for monitoring
func (c *InMemorySummaryCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Stop terminates the background cleanup goroutine
func (c *InMemorySummaryCache) Stop() {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
}

// cleanupExpired periodically evicts expired entries
func (c *InMemorySummaryCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value interface{}) bool {
				if value.(*summaryEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}
