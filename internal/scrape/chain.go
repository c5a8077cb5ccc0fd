// Package scrape provides chained page fetching for investor discovery.
package scrape

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain is a Scraper that falls back across its members until one returns a
// page. The pipeline fetches one page at a time, so Chain carries no
// concurrency.
type Chain struct {
	scrapers []Scraper
}

// NewChain builds a fallback chain over the given scrapers, tried in the
// order passed.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

func (c *Chain) Name() string { return "chain" }

// Supports reports whether any member scraper handles the URL.
func (c *Chain) Supports(url string) bool {
	for _, s := range c.scrapers {
		if s.Supports(url) {
			return true
		}
	}
	return false
}

// Scrape walks the chain until a member returns a page. When every member
// fails, the last attempt's error is carried in the result.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(targetURL) {
			continue
		}
		res, err := s.Scrape(ctx, targetURL)
		if err == nil && res != nil {
			return res, nil
		}
		if err != nil {
			lastErr = err
			zap.L().Debug("scrape: falling through to next scraper",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
		}
		if ctx.Err() != nil {
			// A cancelled batch stops the fallback walk.
			break
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}
