// Package search turns query strings into ranked candidate URLs by scraping
// search engine result pages.
package search

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Engine describes one search engine: how to build its query URL and where
// result links live in its markup. Selectors are alternatives, tried in
// order, so a markup change on the engine's side degrades instead of
// breaking the chain.
type Engine struct {
	Name      string   `yaml:"name"`
	QueryURL  string   `yaml:"query_url"` // %s is replaced with the escaped query
	Selectors []string `yaml:"selectors"`
}

// SearchURL builds the result-page URL for a query.
func (e Engine) SearchURL(query string) string {
	return fmt.Sprintf(e.QueryURL, url.QueryEscape(query))
}

// DefaultEngines returns the built-in fallback chain: DuckDuckGo first,
// Bing second.
func DefaultEngines() []Engine {
	return []Engine{
		{
			Name:      "duckduckgo",
			QueryURL:  "https://duckduckgo.com/?q=%s",
			Selectors: []string{`a[data-testid="result-title-a"]`, "h3 a", ".result__a"},
		},
		{
			Name:      "bing",
			QueryURL:  "https://www.bing.com/search?q=%s",
			Selectors: []string{"h2 a", ".b_algo h2 a", ".b_title a"},
		},
	}
}

// LoadEngines reads an engine chain from a YAML file. Engine markup changes
// more often than this program ships, so the selectors are deployable as
// data.
func LoadEngines(path string) ([]Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "search: read engines file %s", path)
	}

	var wrapper struct {
		Engines []Engine `yaml:"engines"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "search: parse engines file")
	}
	if len(wrapper.Engines) == 0 {
		return nil, eris.Errorf("search: engines file %s defines no engines", path)
	}

	for i, e := range wrapper.Engines {
		if e.Name == "" {
			return nil, eris.Errorf("search: engine %d has no name", i)
		}
		if !strings.Contains(e.QueryURL, "%s") {
			return nil, eris.Errorf("search: engine %q query_url needs a %%s placeholder", e.Name)
		}
		if len(e.Selectors) == 0 {
			return nil, eris.Errorf("search: engine %q has no selectors", e.Name)
		}
	}

	return wrapper.Engines, nil
}
