// Package cache is a small TTL cache over ristretto for hot read paths such as
// the stock list with latest bars.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Keys used by the services.
const (
	StocksLatestKey = "stocks:latest"
)

// Cache is a cost-bounded in-memory cache with a single TTL for every entry.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// New creates a cache holding at most maxCost entries, each living for ttl.
func New(maxCost int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// A nil *Cache is valid and caches nothing.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.c.Get(key)
}

// Set stores val. Writes are applied asynchronously; call Wait to flush.
func (c *Cache) Set(key string, val any) {
	if c != nil {
		c.c.SetWithTTL(key, val, 1, c.ttl)
	}
}

func (c *Cache) Del(key string) {
	if c != nil {
		c.c.Del(key)
	}
}

// Wait blocks until pending writes are visible to Get.
func (c *Cache) Wait() { c.c.Wait() }

// Close stops the cache's background goroutines.
func (c *Cache) Close() { c.c.Close() }

// GetAs is Get with a type assertion; a value of another type counts as a miss.
func GetAs[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
