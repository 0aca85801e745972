package utils

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry is a single cached value with its expiry
type cacheEntry struct {
	key       string
	value     interface{}
	expiresAt time.Time
}

func (e *cacheEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// SmartCache is an in-memory LRU cache with per-entry TTL.
// Used as the fallback lyrics/metadata cache when Redis is disabled.
type SmartCache struct {
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lruList *list.List

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewSmartCache creates a cache holding at most maxSize entries.
// ttl <= 0 disables expiry.
func NewSmartCache(maxSize int, ttl time.Duration) *SmartCache {
	return &SmartCache{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lruList: list.New(),
	}
}

// Get returns the cached value for key, if present and not expired
func (c *SmartCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if entry.expired() {
		c.removeLocked(key)
		c.misses++
		return nil, false
	}

	c.lruList.MoveToFront(elem)
	c.hits++
	return entry.value, true
}

// Set stores value under key, evicting the least recently used entry
// when the cache is full
func (c *SmartCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Time{}
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	if elem, exists := c.items[key]; exists {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.lruList.MoveToFront(elem)
		return
	}

	elem := c.lruList.PushFront(&cacheEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
	c.items[key] = elem

	if c.lruList.Len() > c.maxSize {
		if oldest := c.lruList.Back(); oldest != nil {
			c.removeLocked(oldest.Value.(*cacheEntry).key)
		}
	}
}

// Delete removes key from the cache
func (c *SmartCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Size returns the current number of entries
func (c *SmartCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// HitRate returns the cache hit rate (0.0 to 1.0)
func (c *SmartCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0.0
	}
	return float64(c.hits) / float64(total)
}

// CleanupExpired removes all expired entries and returns how many
func (c *SmartCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, elem := range c.items {
		if elem.Value.(*cacheEntry).expired() {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// StartCleanupWorker periodically removes expired entries until stop is closed
func (c *SmartCache) StartCleanupWorker(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stop:
			return
		}
	}
}

func (c *SmartCache) removeLocked(key string) {
	if elem, exists := c.items[key]; exists {
		c.lruList.Remove(elem)
		delete(c.items, key)
	}
}
