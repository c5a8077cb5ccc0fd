package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/investor-scout/internal/model"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name string
		want model.InvestorType
	}{
		{"Acme Capital Partners", model.InvestorTypeCompany},
		{"Sequoia Fund LLC", model.InvestorTypeCompany},
		{"Horizon Angels", model.InvestorTypeCompany},
		{"NorthBridge Wealth Management", model.InvestorTypeCompany},
		{"smith family office", model.InvestorTypeCompany},
		{"ACME VENTURES", model.InvestorTypeCompany},
		{"Jane Doe", model.InvestorTypePerson},
		{"John Smith", model.InvestorTypePerson},
		{"Peter Thiel", model.InvestorTypePerson},
		{"", model.InvestorTypePerson},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyType(tt.name), "input %q", tt.name)
	}
}

func TestQueriesFor_Person(t *testing.T) {
	queries := QueriesFor("Jane Doe", model.InvestorTypePerson)

	assert.Equal(t, []string{
		`"Jane Doe" email contact investor`,
		`"Jane Doe" contact information`,
		`"Jane Doe" linkedin investor email`,
		`"Jane Doe" venture capital email`,
	}, queries)
}

func TestQueriesFor_Company(t *testing.T) {
	queries := QueriesFor("Acme Capital", model.InvestorTypeCompany)

	assert.Equal(t, []string{
		`"Acme Capital" contact email team`,
		`"Acme Capital" investment contact`,
		`"Acme Capital" portfolio team email`,
		`"Acme Capital" partners contact`,
	}, queries)
}
