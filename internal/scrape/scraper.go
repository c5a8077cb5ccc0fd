package scrape

import (
	"context"

	"github.com/sells-group/investor-scout/internal/model"
)

// Result holds a fetched page with its source.
type Result struct {
	Page   model.FetchedPage
	Source string // e.g. "browser", "http_fallback"
}

// Scraper fetches a single URL and returns its rendered content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
