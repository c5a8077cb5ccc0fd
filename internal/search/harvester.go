package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/investor-scout/internal/config"
	"github.com/sells-group/investor-scout/internal/resilience"
	"github.com/sells-group/investor-scout/internal/scrape"
)

// Fetcher is the page-fetching slice of the scrape chain the harvester
// needs. Result pages go through the same rendering path as target pages;
// engines gate their markup behind JavaScript just as hard.
type Fetcher interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// Harvester turns a query into ranked candidate URLs using an ordered
// engine fallback chain. A later engine is consulted only while the
// collected count sits below the target, with a randomized pause between
// engines.
type Harvester struct {
	engines  []Engine
	fetcher  Fetcher
	limiters map[string]*rate.Limiter
	breakers *resilience.ServiceBreakers
	cfg      config.SearchConfig
}

// NewHarvester creates a Harvester over the given engine chain. Each engine
// gets its own rate limiter and circuit breaker, so a dead or throttled
// engine is skipped without benching the others.
func NewHarvester(fetcher Fetcher, engines []Engine, cfg config.SearchConfig) *Harvester {
	limiters := make(map[string]*rate.Limiter, len(engines))
	if cfg.EngineRPS > 0 {
		burst := cfg.EngineBurst
		if burst < 1 {
			burst = 1
		}
		for _, e := range engines {
			limiters[e.Name] = rate.NewLimiter(rate.Limit(cfg.EngineRPS), burst)
		}
	}
	return &Harvester{
		engines:  engines,
		fetcher:  fetcher,
		limiters: limiters,
		breakers: resilience.NewServiceBreakers(resilience.FromCircuitConfig(cfg.FailureThreshold, cfg.ResetTimeoutSecs)),
		cfg:      cfg,
	}
}

// Harvest returns up to MaxResults candidate URLs for the query,
// prioritized tier first. Engine failures are logged and absorbed; a fully
// failed harvest returns an empty slice.
func (h *Harvester) Harvest(ctx context.Context, query string) []string {
	seen := make(map[string]struct{})
	var collected []string

	for i, engine := range h.engines {
		if len(collected) >= h.cfg.MaxResults {
			break
		}
		if i > 0 {
			if err := resilience.Sleep(ctx, h.cfg.InterEngineDelay.Pick()); err != nil {
				break
			}
		}

		urls, err := h.harvestEngine(ctx, engine, query)
		if err != nil {
			zap.L().Warn("search: engine harvest failed",
				zap.String("engine", engine.Name),
				zap.String("query", query),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		for _, u := range urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			collected = append(collected, u)
		}
		zap.L().Debug("search: engine results",
			zap.String("engine", engine.Name),
			zap.Int("new_urls", len(urls)),
			zap.Int("collected", len(collected)),
		)
	}

	return Rank(collected, h.cfg.MaxResults, h.cfg.PriorityCap)
}

// harvestEngine fetches and parses one engine's result page. Fetch retries
// live inside the scraper; this layer adds pacing and the breaker.
func (h *Harvester) harvestEngine(ctx context.Context, engine Engine, query string) ([]string, error) {
	if limiter := h.limiters[engine.Name]; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrapf(err, "search: %s rate wait", engine.Name)
		}
	}

	breaker := h.breakers.Get(engine.Name)
	return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) ([]string, error) {
		serpURL := engine.SearchURL(query)
		result, err := h.fetcher.Scrape(ctx, serpURL)
		if err != nil {
			return nil, eris.Wrapf(err, "search: %s fetch", engine.Name)
		}
		return ExtractLinks(result.Page.HTML, serpURL, engine.Selectors), nil
	})
}

// ExtractLinks pulls result URLs out of a rendered engine page using the
// selector alternatives. Relative hrefs resolve against the page URL.
// Denylisted and non-http links are dropped; first-appearance order is
// kept across selectors.
func ExtractLinks(html, pageURL string, selectors []string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	seen := make(map[string]struct{})
	var links []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			if href == "" {
				return
			}
			if base != nil {
				if abs, err := base.Parse(href); err == nil {
					href = abs.String()
				}
			}
			if !Allowed(href) {
				return
			}
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			links = append(links, href)
		})
	}
	return links
}
