package pipeline

import (
	"strings"

	"github.com/sells-group/investor-scout/internal/model"
)

// companyIndicators are organizational markers matched case-insensitively
// as substrings. Anything without one is assumed to be a person; the query
// templates and the consumer-domain email filter both key off this split.
var companyIndicators = []string{
	"ventures", "capital", "fund", "partners", "group", "corp", "ltd",
	"inc", "llc", "bank", "foundation", "network", "holdings", "management",
	"equity", "investment", "angels", "vc", "advisory", "advisors",
	"family office", "wealth", "asset", "private equity", "venture capital",
}

// ClassifyType derives the investor type from the name. Pure and total:
// every input classifies, recomputation is free.
func ClassifyType(name string) model.InvestorType {
	lower := strings.ToLower(name)
	for _, indicator := range companyIndicators {
		if strings.Contains(lower, indicator) {
			return model.InvestorTypeCompany
		}
	}
	return model.InvestorTypePerson
}
