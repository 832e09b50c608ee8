package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/iho/goportfolio/internal/usecase"
)

// Cache implements usecase.Cache in process. It is used when no Redis URL is
// configured, so each server instance keeps its own entries.
type Cache struct {
	store *gocache.Cache
}

// NewCache creates a Cache whose expired entries are purged every
// cleanupInterval.
func NewCache(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a value by key. Absent or expired keys yield
// usecase.ErrCacheMiss.
func (c *Cache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return "", usecase.ErrCacheMiss
	}
	s, ok := v.(string)
	if !ok {
		return "", usecase.ErrCacheMiss
	}
	return s, nil
}

// Set stores a value. A zero ttl uses the cache default.
func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, value, ttl)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Len returns the number of stored entries, expired ones included until the
// next cleanup.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
