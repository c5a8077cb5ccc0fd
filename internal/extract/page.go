package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/investor-scout/internal/model"
)

// noiseSelector removes elements that never carry contact data but often
// carry address-shaped junk (tracker beacons, asset URLs).
const noiseSelector = "script, style, nav, footer, header, advertisement"

// prioritySelectors mark regions that usually hold team and contact
// details. Emails found here rank ahead of full-page matches.
var prioritySelectors = []string{
	`[class*="team"]`, `[class*="contact"]`, `[class*="about"]`,
	`[class*="leadership"]`, `[class*="management"]`, `[class*="founder"]`,
	`[class*="partner"]`, `[id*="team"]`, `[id*="contact"]`,
	`[id*="about"]`, "main", "article",
}

// FromPage extracts accepted email addresses from an HTML document.
// Candidates are gathered in confidence order: mailto link targets first,
// then text inside priority regions, then the full page text. All three
// tiers pass the same filter; the union keeps first-seen order.
func FromPage(html string, typ model.InvestorType) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}

	doc.Find(noiseSelector).Remove()

	var candidates []string

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		addr := strings.TrimPrefix(strings.TrimSpace(href), "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if addr != "" {
			candidates = append(candidates, addr)
		}
	})

	var priority strings.Builder
	for _, selector := range prioritySelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			priority.WriteString(flatText(sel))
			priority.WriteByte(' ')
		})
	}
	candidates = append(candidates, emailRe.FindAllString(priority.String(), -1)...)
	candidates = append(candidates, emailRe.FindAllString(flatText(doc.Selection), -1)...)

	return Filter(candidates, typ), nil
}

// flatText joins the text nodes under sel with single spaces. Joining with
// spaces keeps adjacent-element text from fusing into one token, which
// would hide email boundaries from the matcher.
func flatText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return strings.Join(parts, " ")
}
