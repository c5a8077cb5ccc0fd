package search

import (
	"net/url"
	"strings"
)

// denyHosts never yield investor contact pages directly, or are the
// engines' own properties. Matched by substring against the host.
var denyHosts = []string{
	"youtube.com", "facebook.com", "twitter.com", "instagram.com",
	"tiktok.com", "pinterest.com", "reddit.com", "wikipedia.org",
	"duckduckgo.com", "bing.com",
}

// priorityTokens mark hosts likely to be a firm's own site or a
// professional data platform.
var priorityTokens = []string{
	"capital", "ventures", "partners", "fund", "invest",
	"linkedin.com", "crunchbase.com", "pitchbook.com",
}

// Allowed reports whether a result link is worth scraping.
func Allowed(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "http") {
		return false
	}
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	for _, deny := range denyHosts {
		if strings.Contains(host, deny) {
			return false
		}
	}
	return true
}

// Prioritized reports whether the URL's host suggests an investment firm
// or professional network.
func Prioritized(rawURL string) bool {
	host := hostOf(rawURL)
	for _, token := range priorityTokens {
		if strings.Contains(host, token) {
			return true
		}
	}
	return false
}

// Rank orders candidates prioritized-first, preserving discovery order
// inside each tier. priorityCap bounds the prioritized tier; max bounds
// the total.
func Rank(urls []string, max, priorityCap int) []string {
	var prioritized, other []string
	for _, u := range urls {
		if Prioritized(u) {
			prioritized = append(prioritized, u)
		} else {
			other = append(other, u)
		}
	}
	if priorityCap > 0 && len(prioritized) > priorityCap {
		prioritized = prioritized[:priorityCap]
	}

	ranked := make([]string, 0, len(urls))
	ranked = append(ranked, prioritized...)
	ranked = append(ranked, other...)
	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
