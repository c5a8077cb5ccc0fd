package scrape

import (
	"context"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/investor-scout/internal/model"
)

// HTTPScraper fetches raw HTML via net/http. It cannot run JavaScript, so it
// serves as the fallback when the browser is unavailable or keeps failing on
// a URL; static sites still yield their markup this way.
type HTTPScraper struct {
	client     *http.Client
	userAgents []string
	maxBody    int64
}

// NewHTTPScraper creates an HTTPScraper. userAgents rotates the reported
// identity per request; maxBodyKB caps response reads (default 2 MB).
func NewHTTPScraper(userAgents []string, maxBodyKB int) *HTTPScraper {
	if maxBodyKB <= 0 {
		maxBodyKB = 2048
	}
	return &HTTPScraper{
		client: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgents: userAgents,
		maxBody:    int64(maxBodyKB) * 1024,
	}
}

func (h *HTTPScraper) Name() string { return "http_fallback" }

func (h *HTTPScraper) Supports(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Scrape fetches a URL and returns its raw HTML.
func (h *HTTPScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "http_fallback: create request")
	}
	req.Header.Set("User-Agent", h.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http_fallback: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "http_fallback: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("http_fallback: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("http_fallback: status %d", resp.StatusCode)
	}

	if len(body) < 100 {
		return nil, eris.New("http_fallback: empty page")
	}

	return &Result{
		Page: model.FetchedPage{
			URL:        targetURL,
			Title:      extractTitle(body),
			HTML:       string(body),
			StatusCode: resp.StatusCode,
			FetchedAt:  time.Now(),
		},
		Source: "http_fallback",
	}, nil
}

func (h *HTTPScraper) userAgent() string {
	if len(h.userAgents) == 0 {
		return "Mozilla/5.0 (compatible; InvestorScout/1.0)"
	}
	return h.userAgents[rand.IntN(len(h.userAgents))]
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}
