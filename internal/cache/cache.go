// Package cache holds per-scan verification results so a target URL
// linked from many pages is only checked once.
package cache

import (
	"sync"

	"github.com/corella-au/corella/internal/verifier"
)

// ResultCache is a concurrent-safe store of link check results keyed
// by target URL.
type ResultCache struct {
	mu    sync.RWMutex
	items map[string]verifier.CheckResult
}

// NewResultCache creates and returns a new ResultCache.
func NewResultCache() *ResultCache {
	return &ResultCache{
		items: make(map[string]verifier.CheckResult),
	}
}

// Get retrieves a result from the cache.
// It returns the result and true if the URL has been checked, otherwise false.
func (c *ResultCache) Get(targetURL string) (verifier.CheckResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, found := c.items[targetURL]
	return item, found
}

// Set records the result for a target URL.
func (c *ResultCache) Set(targetURL string, result verifier.CheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[targetURL] = result
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
