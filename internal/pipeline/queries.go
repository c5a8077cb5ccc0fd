package pipeline

import (
	"fmt"

	"github.com/sells-group/investor-scout/internal/model"
)

// QueriesFor returns the search queries for one investor. People and firms
// need different phrasing: a person's email surfaces near words like
// "investor" and "linkedin", a firm's near "team" and "partners". The name
// is quoted so engines keep it as a phrase.
func QueriesFor(name string, typ model.InvestorType) []string {
	if typ == model.InvestorTypePerson {
		return []string{
			fmt.Sprintf(`"%s" email contact investor`, name),
			fmt.Sprintf(`"%s" contact information`, name),
			fmt.Sprintf(`"%s" linkedin investor email`, name),
			fmt.Sprintf(`"%s" venture capital email`, name),
		}
	}
	return []string{
		fmt.Sprintf(`"%s" contact email team`, name),
		fmt.Sprintf(`"%s" investment contact`, name),
		fmt.Sprintf(`"%s" portfolio team email`, name),
		fmt.Sprintf(`"%s" partners contact`, name),
	}
}
