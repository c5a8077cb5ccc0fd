// Package pipeline drives investor email discovery: name normalization,
// per-investor resolution, and the sequential batch loop.
package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Pasted investor lists often arrive with separators stripped, leaving names
// fused ("John SmithMary Jones"). A lowercase letter running straight into
// an uppercase one marks the missing boundary. The double-capital rule fires
// first so acronym starts ("...GroupIBM...") split ahead of ordinary
// word starts.
var (
	boundaryAcronymRe = regexp.MustCompile(`([a-z])([A-Z][A-Z])`)
	boundaryWordRe    = regexp.MustCompile(`([a-z])([A-Z][a-z])`)
)

// NormalizeNames splits a raw text blob into clean investor names: bullet
// markers become line breaks, fused names split on case boundaries,
// fragments of length <= 2 are dropped, and duplicates collapse
// case-insensitively keeping first-seen order.
func NormalizeNames(raw string) []string {
	text := strings.ReplaceAll(raw, "•", "\n")
	text = boundaryAcronymRe.ReplaceAllString(text, "$1\n$2")
	text = boundaryWordRe.ReplaceAllString(text, "$1\n$2")

	seen := make(map[string]struct{})
	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 2 {
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, line)
	}
	return names
}

// CollapseName reduces a name to bare lowercase alphanumerics with
// diacritics folded, the form most likely to appear in a firm's URL.
// Used by the early-exit check to spot an investor's own site.
func CollapseName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
