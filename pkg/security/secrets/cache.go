package secrets

import (
	"sync"
	"time"
)

// CacheConfig configures the secret cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration

	// MaxSize bounds the number of entries; zero or less means unbounded
	MaxSize int
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache of secret values.
// When full, the entry closest to expiry is evicted.
type Cache struct {
	config  CacheConfig
	entries map[string]cacheEntry
	now     func() time.Time
	mu      sync.RWMutex
}

// NewCache creates a cache with the given configuration.
func NewCache(config CacheConfig) *Cache {
	return &Cache{
		config:  config,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns a cached value that has not expired.
func (c *Cache) Get(key string) (string, bool) {
	if !c.config.Enabled {
		return "", false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

// Set stores value under key for the configured TTL.
func (c *Cache) Set(key, value string) {
	if !c.config.Enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.config.MaxSize > 0 && len(c.entries) >= c.config.MaxSize {
		c.evictLocked(now)
	}

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: now.Add(c.config.TTL),
	}
}

// evictLocked drops expired entries, or the one closest to expiry if none are.
func (c *Cache) evictLocked(now time.Time) {
	var (
		oldestKey  string
		oldestTime time.Time
		expired    bool
	)
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			expired = true
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.expiresAt
		}
	}
	if !expired && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Size returns the number of stored entries, expired ones included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
