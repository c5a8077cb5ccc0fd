package main

import (
	"time"

	"github.com/sells-group/investor-scout/internal/browser"
	"github.com/sells-group/investor-scout/internal/config"
	"github.com/sells-group/investor-scout/internal/pipeline"
	"github.com/sells-group/investor-scout/internal/resilience"
	"github.com/sells-group/investor-scout/internal/scrape"
	"github.com/sells-group/investor-scout/internal/search"
)

// buildRunner wires the scrape chain, search harvester, and email resolver
// into a batch Runner. The browser manager is shared so run and serve close
// it themselves.
func buildRunner(mgr *browser.Manager, batchCfg config.BatchConfig) (*pipeline.Runner, error) {
	retry := resilience.FromRetryConfig(cfg.Fetch.MaxAttempts, cfg.Fetch.RetryBackoffSecs)
	navTimeout := time.Duration(cfg.Fetch.NavTimeoutSecs) * time.Second
	settle := time.Duration(cfg.Fetch.SettleSecs) * time.Second

	scrapers := []scrape.Scraper{scrape.NewBrowserScraper(mgr, retry, navTimeout, settle)}
	if cfg.Fetch.HTTPFallback {
		scrapers = append(scrapers, scrape.NewHTTPScraper(cfg.Browser.UserAgents, cfg.Fetch.MaxBodyKB))
	}

	ttl := time.Duration(cfg.Fetch.CacheTTLMins) * time.Minute
	cached, err := scrape.NewCachedScraper(scrape.NewChain(scrapers...), cfg.Fetch.CacheSize, ttl)
	if err != nil {
		return nil, err
	}

	engines := search.DefaultEngines()
	if cfg.Search.EnginesFile != "" {
		engines, err = search.LoadEngines(cfg.Search.EnginesFile)
		if err != nil {
			return nil, err
		}
	}

	harvester := search.NewHarvester(cached, engines, cfg.Search)
	resolver := pipeline.NewResolver(harvester, cached, cfg.Resolver)
	return pipeline.NewRunner(resolver, pipeline.NewStatusTracker(), batchCfg), nil
}
