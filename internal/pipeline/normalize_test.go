package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNames_SplitsFusedNames(t *testing.T) {
	names := NormalizeNames("John SmithMary Jones")

	assert.Equal(t, []string{"John Smith", "Mary Jones"}, names)
}

func TestNormalizeNames_SplitsAcronymBoundary(t *testing.T) {
	names := NormalizeNames("Liberty GroupIBM Ventures")

	assert.Equal(t, []string{"Liberty Group", "IBM Ventures"}, names)
}

func TestNormalizeNames_BulletSeparators(t *testing.T) {
	names := NormalizeNames("• John Smith • Acme Capital • Jane Doe")

	assert.Equal(t, []string{"John Smith", "Acme Capital", "Jane Doe"}, names)
}

func TestNormalizeNames_DropsShortFragments(t *testing.T) {
	names := NormalizeNames("Jo\nJohn Smith\nAB\n  \n")

	assert.Equal(t, []string{"John Smith"}, names)
}

func TestNormalizeNames_DedupesCaseInsensitive(t *testing.T) {
	names := NormalizeNames("John Smith\nJOHN SMITH\nJane Doe\njohn smith")

	// First-seen casing wins.
	assert.Equal(t, []string{"John Smith", "Jane Doe"}, names)
}

func TestNormalizeNames_Idempotent(t *testing.T) {
	first := NormalizeNames("• John SmithMary Jones • Acme Capital PartnersBlue Fund")
	second := NormalizeNames(strings.Join(first, "\n"))

	assert.Equal(t, first, second)
}

func TestNormalizeNames_Empty(t *testing.T) {
	assert.Empty(t, NormalizeNames(""))
	assert.Empty(t, NormalizeNames("  \n\t\n "))
}

func TestCollapseName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Acme Capital", "acmecapital"},
		{"José García", "josegarcia"},
		{"O'Brien-Smith Partners, LLC", "obriensmithpartnersllc"},
		{"A16Z", "a16z"},
		{"Zoë Ventures", "zoeventures"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CollapseName(tt.name), "input %q", tt.name)
	}
}
