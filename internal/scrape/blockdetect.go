package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// DetectBlock checks an HTTP response for signs of anti-bot protection.
// Used by the plain-HTTP fallback, where headers are available.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	// Cloudflare fronting answers 403/503 with cf-* headers.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		h := resp.Header
		if h.Get("cf-ray") != "" || h.Get("cf-cache-status") != "" || h.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	if blocked, bt := DetectRenderedBlock(string(body)); blocked {
		return true, bt
	}

	// A tiny page that asks for JavaScript is a shell waiting for a browser.
	if len(body) < 2000 {
		lower := strings.ToLower(string(body))
		switch {
		case strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript"),
			strings.Contains(lower, `meta http-equiv="refresh"`):
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}

// DetectRenderedBlock checks rendered HTML for challenge pages. The markers
// are kept narrow: pages legitimately mentioning captchas must not trip it.
func DetectRenderedBlock(html string) (bool, BlockType) {
	lower := strings.ToLower(html)

	// Cloudflare interstitials.
	if strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cf-chl-") ||
		strings.Contains(lower, "checking your browser before accessing") ||
		strings.Contains(lower, "<title>just a moment") ||
		strings.Contains(lower, "<title>attention required") {
		return true, BlockCloudflare
	}

	// Embedded captcha widgets and engine rate-limit pages.
	if strings.Contains(lower, "g-recaptcha") ||
		strings.Contains(lower, "h-captcha") ||
		strings.Contains(lower, `id="challenge-form"`) ||
		strings.Contains(lower, "verify you are human") ||
		strings.Contains(lower, "unusual traffic from your computer network") {
		return true, BlockCaptcha
	}

	return false, BlockNone
}
