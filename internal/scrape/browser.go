package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/investor-scout/internal/browser"
	"github.com/sells-group/investor-scout/internal/model"
	"github.com/sells-group/investor-scout/internal/resilience"
)

// renderer is the slice of browser.Manager the scraper needs. Narrowed to an
// interface so tests can substitute a canned implementation.
type renderer interface {
	Render(ctx context.Context, url string, navTimeout, settle time.Duration) (*browser.RenderedPage, error)
}

// BrowserScraper fetches pages through headless Chrome. Every failure mode
// (navigation error, HTTP >= 400, block page, empty document) counts as a
// failed attempt and is retried on a fixed interval; exhaustion surfaces as
// an error the chain converts to "no data from this source".
type BrowserScraper struct {
	mgr        renderer
	retry      resilience.RetryConfig
	navTimeout time.Duration
	settle     time.Duration
}

// NewBrowserScraper creates a BrowserScraper on top of a shared Manager.
func NewBrowserScraper(mgr *browser.Manager, retry resilience.RetryConfig, navTimeout, settle time.Duration) *BrowserScraper {
	retry.ShouldRetry = resilience.RetryAll
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("browser", "render")
	}
	return &BrowserScraper{
		mgr:        mgr,
		retry:      retry,
		navTimeout: navTimeout,
		settle:     settle,
	}
}

func (b *BrowserScraper) Name() string { return "browser" }

func (b *BrowserScraper) Supports(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Scrape renders the URL and returns its DOM.
func (b *BrowserScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	page, err := resilience.DoVal(ctx, b.retry, func(ctx context.Context) (*browser.RenderedPage, error) {
		return b.renderOnce(ctx, targetURL)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "browser: fetch %s", targetURL)
	}

	return &Result{
		Page: model.FetchedPage{
			URL:        targetURL,
			Title:      page.Title,
			HTML:       page.HTML,
			StatusCode: page.Status,
			FetchedAt:  time.Now(),
		},
		Source: "browser",
	}, nil
}

func (b *BrowserScraper) renderOnce(ctx context.Context, targetURL string) (*browser.RenderedPage, error) {
	page, err := b.mgr.Render(ctx, targetURL, b.navTimeout, b.settle)
	if err != nil {
		return nil, err
	}

	// A 4xx/5xx document is a failed attempt, not an exception.
	if page.Status >= 400 {
		return nil, resilience.NewTransientError(
			eris.Errorf("browser: status %d", page.Status), page.Status)
	}

	if blocked, bt := DetectRenderedBlock(page.HTML); blocked {
		return nil, resilience.NewTransientError(
			eris.Errorf("browser: blocked (%s)", bt), page.Status)
	}

	if len(page.HTML) < 100 {
		return nil, resilience.NewTransientError(eris.New("browser: empty page"), page.Status)
	}

	return page, nil
}
