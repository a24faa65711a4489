package registry

import (
	"sync"
	"time"

	"github.com/depfused/depfused/types"
)

type cacheEntry struct {
	result    types.NpmCheckResult
	expiresAt time.Time
}

// cache is a TTL-bounded in-memory cache of npm registry check
// results, keyed by the raw package name.
type cache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cacheEntry
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, items: make(map[string]cacheEntry)}
}

func (c *cache) get(name string) (types.NpmCheckResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[name]
	if !ok {
		return types.NpmCheckResult{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.items, name)
		return types.NpmCheckResult{}, false
	}
	return entry.result, true
}

func (c *cache) set(name string, result types.NpmCheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[name] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
}
