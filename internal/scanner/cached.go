package scanner

import (
	"context"

	"github.com/corella-au/corella/internal/cache"
	"github.com/corella-au/corella/internal/extractor"
	"github.com/corella-au/corella/internal/verifier"
)

// cachedChecker wraps a LinkChecker with a per-scan result cache so a
// target linked from many pages is only verified once. The cache lives
// for a single scan; results are never reused across scans.
type cachedChecker struct {
	inner LinkChecker
	cache *cache.ResultCache
}

func newCachedChecker(inner LinkChecker) *cachedChecker {
	return &cachedChecker{
		inner: inner,
		cache: cache.NewResultCache(),
	}
}

func (c *cachedChecker) CheckLink(ctx context.Context, link extractor.Link) verifier.CheckResult {
	if result, found := c.cache.Get(link.TargetURL); found {
		// Keep the requesting page's source context on the cached result
		result.Link = link
		return result
	}

	result := c.inner.CheckLink(ctx, link)

	// Concurrent misses within a batch may both check the target; the
	// later write wins and the results are equivalent.
	c.cache.Set(link.TargetURL, result)
	return result
}
