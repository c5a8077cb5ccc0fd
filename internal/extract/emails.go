// Package extract pulls contact email addresses out of scraped page content.
package extract

import (
	"regexp"
	"slices"
	"strings"

	"github.com/sells-group/investor-scout/internal/model"
)

var emailRe = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// excludePatterns rejects any address containing one of these substrings.
// Target sites are arbitrary, so filtering leans aggressive: a wrong email
// in the output costs more than a missed one.
var excludePatterns = []string{
	// Generic and system mailboxes.
	"@example.", "@test.", "@placeholder.", "@domain.", "@temp.",
	"noreply@", "no-reply@", "donotreply@", "support@", "info@",
	"hello@", "contact@", "admin@", "webmaster@", "sales@",
	"marketing@", "help@", "service@", "customerservice@",

	// Social media and big tech.
	"@sentry.", "@facebook.", "@twitter.", "@linkedin.",
	"@youtube.", "@instagram.", "@tiktok.", "@google.",
	"@microsoft.", "@apple.", "@amazon.", "@adobe.",
	"@github.", "@stackoverflow.", "@reddit.", "@discord.",
	"@slack.", "@zoom.", "@teams.", "@skype.",

	// Tracking and analytics.
	"@traxcn.", "@analytics.", "@tracking.", "@pixel.",
	"@googletagmanager.", "@googleanalytics.", "@hotjar.",
	"@mixpanel.", "@segment.", "@amplitude.", "@intercom.",

	// Common false positives in page markup.
	"hi@traxcn", "track@", "pixel@", "img@", "image@",
	"static@", "cdn@", "assets@", "mail@mailgun",
	"bounce@", "@mailgun.", "@sendgrid.", "@mailchimp.",

	// Newsletter and marketing platforms.
	"@constantcontact.", "@aweber.", "@convertkit.",
	"@activecampaign.", "@klaviyo.", "@mailerlite.",
}

// consumerDomains are rejected for company investors only. A fund contact
// behind a personal gmail is almost always a scrape artifact; for individual
// angels it can be the real address.
var consumerDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"aol.com", "live.com", "msn.com", "icloud.com",
}

// Emails scans free text for addresses and returns the accepted ones,
// lowercased, in first-seen order with duplicates removed.
func Emails(text string, typ model.InvestorType) []string {
	return Filter(emailRe.FindAllString(text, -1), typ)
}

// Filter validates explicit candidates such as mailto targets. Each
// candidate is reduced to its email-shaped token, lowercased, and run
// through the same acceptance rules as scanned text.
func Filter(candidates []string, typ model.InvestorType) []string {
	seen := make(map[string]struct{}, len(candidates))
	var accepted []string
	for _, raw := range candidates {
		email := strings.ToLower(emailRe.FindString(strings.TrimSpace(raw)))
		if email == "" || !accept(email, typ) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		accepted = append(accepted, email)
	}
	return accepted
}

func accept(email string, typ model.InvestorType) bool {
	for _, pattern := range excludePatterns {
		if strings.Contains(email, pattern) {
			return false
		}
	}

	if len(email) < 5 {
		return false
	}
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return false
	}
	local, domain := email[:at], email[at+1:]

	if !strings.Contains(domain, ".") {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels[len(labels)-1]) < 2 {
		return false
	}

	if typ == model.InvestorTypeCompany && slices.Contains(consumerDomains, domain) {
		return false
	}

	// Too many separators suggests a generated or obfuscated address.
	if strings.Count(email, ".") > 3 || strings.Count(email, "-") > 2 {
		return false
	}

	if isAllDigits(local) {
		return false
	}

	return true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
