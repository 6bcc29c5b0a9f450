// Package cache holds computed analytics results keyed by the caller supplied cache key.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 1024
)

// CacheStats tracks cache statistics
type CacheStats struct {
	Hits      int64
	Misses    int64
	Writes    int64
	Evictions int64
}

// Entry is a stored result and the time it was written
type Entry struct {
	Data       json.RawMessage
	InsertedAt time.Time
}

// ResultCache is a bounded in-memory cache. An entry is served while
// now - InsertedAt < TTL; older entries are dropped on read.
type ResultCache struct {
	lru   *expirable.LRU[string, Entry]
	ttl   time.Duration
	now   func() time.Time
	stats *CacheStats
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithClock replaces the wall clock used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		c.now = now
	}
}

// NewResultCache creates a cache holding at most size entries for ttl.
// Non-positive values select DefaultSize and DefaultTTL.
func NewResultCache(size int, ttl time.Duration, opts ...Option) *ResultCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ResultCache{
		ttl:   ttl,
		now:   time.Now,
		stats: &CacheStats{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lru = expirable.NewLRU[string, Entry](size, func(string, Entry) {
		atomic.AddInt64(&c.stats.Evictions, 1)
	}, ttl)
	return c
}

// Get returns the stored result for key
func (c *ResultCache) Get(key string) (json.RawMessage, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		atomic.AddInt64(&c.stats.Misses, 1)
		return nil, ErrCacheMiss
	}
	if c.now().Sub(entry.InsertedAt) >= c.ttl {
		c.lru.Remove(key)
		atomic.AddInt64(&c.stats.Misses, 1)
		return nil, ErrCacheMiss
	}
	atomic.AddInt64(&c.stats.Hits, 1)
	return entry.Data, nil
}

// Set stores data under key, superseding any previous entry
func (c *ResultCache) Set(key string, data json.RawMessage) {
	stored := make(json.RawMessage, len(data))
	copy(stored, data)
	c.lru.Add(key, Entry{Data: stored, InsertedAt: c.now()})
	atomic.AddInt64(&c.stats.Writes, 1)
}

// Len returns the number of entries, expired ones included until they are reaped
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry
func (c *ResultCache) Purge() {
	c.lru.Purge()
}

// TTL returns the entry lifetime
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// GetStats returns cache statistics
func (c *ResultCache) GetStats() CacheStats {
	return CacheStats{
		Hits:      atomic.LoadInt64(&c.stats.Hits),
		Misses:    atomic.LoadInt64(&c.stats.Misses),
		Writes:    atomic.LoadInt64(&c.stats.Writes),
		Evictions: atomic.LoadInt64(&c.stats.Evictions),
	}
}

// Key derives a deterministic cache key from an operation and its payload
func Key(op analytics.OperationKind, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload for cache key: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(op))
	h.Write(data)
	return fmt.Sprintf("%s:%x", op, h.Sum(nil)[:16]), nil
}
