package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/investor-scout/internal/config"
	"github.com/sells-group/investor-scout/internal/model"
	"github.com/sells-group/investor-scout/internal/scrape"
)

// stubHarvester returns the same URL list for every query and records how
// many queries ran.
type stubHarvester struct {
	urls    []string
	queries []string
}

func (h *stubHarvester) Harvest(_ context.Context, query string) []string {
	h.queries = append(h.queries, query)
	return h.urls
}

// stubPageScraper serves canned HTML per URL and records fetch order.
type stubPageScraper struct {
	pages map[string]string
	errs  map[string]error
	urls  []string
}

func (s *stubPageScraper) Scrape(_ context.Context, url string) (*scrape.Result, error) {
	s.urls = append(s.urls, url)
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	html, ok := s.pages[url]
	if !ok {
		return nil, eris.New("no such page")
	}
	return &scrape.Result{
		Page:   model.FetchedPage{URL: url, HTML: html, StatusCode: 200},
		Source: "browser",
	}, nil
}

// testResolverConfig keeps delays at zero so tests run instantly.
func testResolverConfig() config.ResolverConfig {
	return config.ResolverConfig{
		MaxPagesPerQuery:   3,
		EarlyExitMinEmails: 2,
	}
}

func pageWith(emails ...string) string {
	html := "<html><body><main>"
	for _, e := range emails {
		html += "<p>Reach us at " + e + "</p>"
	}
	return html + "</main></body></html>"
}

func TestResolver_CollectsAcrossQueriesAndPages(t *testing.T) {
	harvester := &stubHarvester{urls: []string{
		"https://site-one.example/contact",
		"https://site-two.example/team",
	}}
	scraper := &stubPageScraper{pages: map[string]string{
		"https://site-one.example/contact": pageWith("jane@acmefund.com"),
		"https://site-two.example/team":    pageWith("john@acmefund.com", "jane@acmefund.com"),
	}}
	r := NewResolver(harvester, scraper, testResolverConfig())

	emails, err := r.Resolve(context.Background(), "Jane Doe")

	require.NoError(t, err)
	// Duplicates across pages and queries collapse, first-seen order kept.
	assert.Equal(t, []string{"jane@acmefund.com", "john@acmefund.com"}, emails)
	// A person gets four queries, every one of them quoted.
	require.Len(t, harvester.queries, 4)
	assert.Contains(t, harvester.queries[0], `"Jane Doe"`)
}

func TestResolver_EarlyExitOnAuthoritativePage(t *testing.T) {
	// Two emails on a page whose URL embeds the collapsed investor name
	// ends the query before the remaining URLs are scraped.
	harvester := &stubHarvester{urls: []string{
		"https://acmecapital.com/team",
		"https://directory.example/listing",
	}}
	scraper := &stubPageScraper{pages: map[string]string{
		"https://acmecapital.com/team":      pageWith("a@acmecapital.com", "b@acmecapital.com"),
		"https://directory.example/listing": pageWith("c@acmecapital.com"),
	}}
	r := NewResolver(harvester, scraper, testResolverConfig())

	emails, err := r.Resolve(context.Background(), "Acme Capital")

	require.NoError(t, err)
	assert.Equal(t, []string{"a@acmecapital.com", "b@acmecapital.com"}, emails)
	assert.NotContains(t, scraper.urls, "https://directory.example/listing")
}

func TestResolver_EarlyExitOnAuthorityHost(t *testing.T) {
	cfg := testResolverConfig()
	cfg.AuthorityHosts = []string{"linkedin.com"}

	harvester := &stubHarvester{urls: []string{
		"https://www.linkedin.com/in/jane-doe",
		"https://directory.example/listing",
	}}
	scraper := &stubPageScraper{pages: map[string]string{
		"https://www.linkedin.com/in/jane-doe": pageWith("jane@acmefund.com", "jane.doe@acmefund.com"),
		"https://directory.example/listing":    pageWith("other@acmefund.com"),
	}}
	r := NewResolver(harvester, scraper, cfg)

	emails, err := r.Resolve(context.Background(), "Jane Doe")

	require.NoError(t, err)
	assert.Equal(t, []string{"jane@acmefund.com", "jane.doe@acmefund.com"}, emails)
	assert.NotContains(t, scraper.urls, "https://directory.example/listing")
}

func TestResolver_NoEarlyExitBelowThreshold(t *testing.T) {
	// One email on the investor's own site is not enough to end the query.
	harvester := &stubHarvester{urls: []string{
		"https://acmecapital.com/contact",
		"https://directory.example/listing",
	}}
	scraper := &stubPageScraper{pages: map[string]string{
		"https://acmecapital.com/contact":   pageWith("a@acmecapital.com"),
		"https://directory.example/listing": pageWith("b@acmecapital.com"),
	}}
	r := NewResolver(harvester, scraper, testResolverConfig())

	emails, err := r.Resolve(context.Background(), "Acme Capital")

	require.NoError(t, err)
	assert.Equal(t, []string{"a@acmecapital.com", "b@acmecapital.com"}, emails)
	assert.Contains(t, scraper.urls, "https://directory.example/listing")
}

func TestResolver_SkipsFailedPages(t *testing.T) {
	harvester := &stubHarvester{urls: []string{
		"https://broken.example/page",
		"https://working.example/contact",
	}}
	scraper := &stubPageScraper{
		pages: map[string]string{
			"https://working.example/contact": pageWith("team@acmefund.com"),
		},
		errs: map[string]error{
			"https://broken.example/page": eris.New("scrape: blocked"),
		},
	}
	r := NewResolver(harvester, scraper, testResolverConfig())

	emails, err := r.Resolve(context.Background(), "Jane Doe")

	require.NoError(t, err)
	assert.Equal(t, []string{"team@acmefund.com"}, emails)
}

func TestResolver_LimitsPagesPerQuery(t *testing.T) {
	cfg := testResolverConfig()
	cfg.MaxPagesPerQuery = 1

	harvester := &stubHarvester{urls: []string{
		"https://first.example/contact",
		"https://second.example/contact",
	}}
	scraper := &stubPageScraper{pages: map[string]string{
		"https://first.example/contact":  pageWith("a@acmefund.com"),
		"https://second.example/contact": pageWith("b@acmefund.com"),
	}}
	r := NewResolver(harvester, scraper, cfg)

	emails, err := r.Resolve(context.Background(), "Jane Doe")

	require.NoError(t, err)
	assert.Equal(t, []string{"a@acmefund.com"}, emails)
	assert.NotContains(t, scraper.urls, "https://second.example/contact")
}

// cancellingHarvester cancels the batch context from inside the first
// harvest, as a stop request landing mid-query would.
type cancellingHarvester struct {
	cancel context.CancelFunc
	urls   []string
}

func (h *cancellingHarvester) Harvest(_ context.Context, _ string) []string {
	h.cancel()
	return h.urls
}

func TestResolver_CancelStopsResolution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	harvester := &cancellingHarvester{cancel: cancel, urls: []string{"https://acme.example/contact"}}
	scraper := &stubPageScraper{pages: map[string]string{
		"https://acme.example/contact": pageWith("jane@acmefund.com"),
	}}
	r := NewResolver(harvester, scraper, testResolverConfig())

	emails, err := r.Resolve(ctx, "Jane Doe")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, emails)
	assert.Empty(t, scraper.urls)
}

func TestResolver_NoResultsIsNotAnError(t *testing.T) {
	harvester := &stubHarvester{}
	scraper := &stubPageScraper{}
	r := NewResolver(harvester, scraper, testResolverConfig())

	emails, err := r.Resolve(context.Background(), "Jane Doe")

	require.NoError(t, err)
	assert.Empty(t, emails)
}
