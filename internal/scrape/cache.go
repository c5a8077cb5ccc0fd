package scrape

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type cacheEntry struct {
	result  *Result
	fetched time.Time
}

// CachedScraper decorates a Scraper with an LRU page cache. The resolver
// frequently meets the same URL across queries and investors (LinkedIn
// profiles, fund contact pages); serving repeats from memory avoids
// re-rendering and keeps the request footprint down.
type CachedScraper struct {
	inner Scraper
	cache *lru.Cache[string, cacheEntry]
	ttl   time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewCachedScraper wraps inner with a cache of the given size and TTL.
func NewCachedScraper(inner Scraper, size int, ttl time.Duration) (*CachedScraper, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create page cache")
	}
	return &CachedScraper{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		nowFunc: time.Now,
	}, nil
}

func (c *CachedScraper) Name() string { return c.inner.Name() }

func (c *CachedScraper) Supports(url string) bool { return c.inner.Supports(url) }

// Scrape returns a cached result when fresh, otherwise delegates to the
// wrapped scraper. Only successful results are cached.
func (c *CachedScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if entry, ok := c.cache.Get(targetURL); ok {
		if c.ttl <= 0 || c.nowFunc().Sub(entry.fetched) < c.ttl {
			zap.L().Debug("scrape: cache hit", zap.String("url", targetURL))
			return entry.result, nil
		}
		c.cache.Remove(targetURL)
	}

	result, err := c.inner.Scrape(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	c.cache.Add(targetURL, cacheEntry{result: result, fetched: c.nowFunc()})
	return result, nil
}

// Purge drops all cached pages.
func (c *CachedScraper) Purge() {
	c.cache.Purge()
}
