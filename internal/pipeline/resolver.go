package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/investor-scout/internal/config"
	"github.com/sells-group/investor-scout/internal/extract"
	"github.com/sells-group/investor-scout/internal/model"
	"github.com/sells-group/investor-scout/internal/resilience"
	"github.com/sells-group/investor-scout/internal/scrape"
)

// Harvester is the query-to-URLs slice of the search package.
type Harvester interface {
	Harvest(ctx context.Context, query string) []string
}

// Scraper is the page-fetching slice of the scrape chain.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// Resolver produces the email set for a single investor: classify, build
// queries, harvest candidate URLs, scrape a bounded prefix of them, and
// union the extracted addresses. Per-query and per-page failures are
// logged and skipped; only cancellation aborts resolution.
type Resolver struct {
	harvester Harvester
	scraper   Scraper
	cfg       config.ResolverConfig
}

// NewResolver creates a Resolver.
func NewResolver(h Harvester, s Scraper, cfg config.ResolverConfig) *Resolver {
	return &Resolver{harvester: h, scraper: s, cfg: cfg}
}

// Resolve returns the deduplicated emails found for the investor, in
// discovery order. An empty slice is a normal outcome. The returned error
// is non-nil only when the context ends resolution early.
func (r *Resolver) Resolve(ctx context.Context, name string) ([]string, error) {
	typ := ClassifyType(name)
	log := zap.L().With(zap.String("investor", name), zap.String("type", string(typ)))
	log.Info("resolver: starting discovery")

	seen := make(map[string]struct{})
	var found []string

	queries := QueriesFor(name, typ)
	for qi, query := range queries {
		if qi > 0 {
			// Pacing between queries: once something was found the search
			// can afford to move faster.
			delay := r.cfg.QueryEmptyDelay
			if len(found) > 0 {
				delay = r.cfg.QueryFoundDelay
			}
			if err := resilience.Sleep(ctx, delay.Pick()); err != nil {
				return found, err
			}
		}

		log.Info("resolver: running query", zap.String("query", query))
		urls := r.harvester.Harvest(ctx, query)
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
		log.Info("resolver: query harvested", zap.Int("urls", len(urls)))

		limit := len(urls)
		if r.cfg.MaxPagesPerQuery > 0 && limit > r.cfg.MaxPagesPerQuery {
			limit = r.cfg.MaxPagesPerQuery
		}

		for i := 0; i < limit; i++ {
			if i > 0 {
				if err := resilience.Sleep(ctx, r.cfg.PageDelay.Pick()); err != nil {
					return found, err
				}
			}

			pageURL := urls[i]
			log.Info("resolver: scraping page",
				zap.Int("page", i+1),
				zap.Int("of", limit),
				zap.String("url", pageURL),
			)

			pageEmails, err := r.scrapePage(ctx, pageURL, typ)
			if err != nil {
				if ctx.Err() != nil {
					return found, ctx.Err()
				}
				log.Warn("resolver: page failed", zap.String("url", pageURL), zap.Error(err))
				continue
			}

			for _, e := range pageEmails {
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				found = append(found, e)
			}

			if len(pageEmails) > 0 {
				log.Info("resolver: emails found",
					zap.Strings("emails", pageEmails),
					zap.String("url", pageURL),
				)
				if len(pageEmails) >= r.cfg.EarlyExitMinEmails && r.authoritative(pageURL, name) {
					log.Info("resolver: authoritative source, ending query early",
						zap.String("url", pageURL))
					break
				}
			}
		}
	}

	log.Info("resolver: discovery finished", zap.Int("emails", len(found)))
	return found, nil
}

func (r *Resolver) scrapePage(ctx context.Context, pageURL string, typ model.InvestorType) ([]string, error) {
	result, err := r.scraper.Scrape(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extract.FromPage(result.Page.HTML, typ)
}

// authoritative reports whether a page that just yielded emails looks like
// the investor's own presence: a configured authority host, or the
// collapsed name embedded in the URL. The exact trigger is policy, tuned
// through config rather than promised as a contract.
func (r *Resolver) authoritative(pageURL, name string) bool {
	lower := strings.ToLower(pageURL)
	for _, host := range r.cfg.AuthorityHosts {
		if host != "" && strings.Contains(lower, strings.ToLower(host)) {
			return true
		}
	}
	collapsed := CollapseName(name)
	return collapsed != "" && strings.Contains(lower, collapsed)
}
