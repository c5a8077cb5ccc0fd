package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvestorTypeValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "person", string(InvestorTypePerson))
	assert.Equal(t, "company", string(InvestorTypeCompany))
}

func TestRunStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status RunStatus
		want   string
	}{
		{RunStatusRunning, "running"},
		{RunStatusComplete, "complete"},
		{RunStatusStopped, "stopped"},
		{RunStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestNewSuccessResult(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	r := NewSuccessResult("Acme Ventures", InvestorTypeCompany,
		[]string{"jane@acme.vc", "team@acme.vc"}, now)
	assert.Equal(t, "Acme Ventures", r.InvestorName)
	assert.Equal(t, InvestorTypeCompany, r.Type)
	assert.Equal(t, 2, r.EmailsFound)
	assert.Equal(t, "jane@acme.vc; team@acme.vc", r.Emails)
	assert.Equal(t, ResultStatusSuccess, r.Status)
	assert.Equal(t, "2025-03-14 09:26:53", r.Timestamp)
}

func TestNewSuccessResultEmpty(t *testing.T) {
	t.Parallel()

	r := NewSuccessResult("Jane Smith", InvestorTypePerson, nil, time.Now())
	assert.Equal(t, 0, r.EmailsFound)
	assert.Equal(t, NoEmailsFound, r.Emails)
	assert.Equal(t, ResultStatusSuccess, r.Status)
}

func TestNewErrorResult(t *testing.T) {
	t.Parallel()

	r := NewErrorResult("Jane Smith", InvestorTypePerson, "search timed out", time.Now())
	assert.Equal(t, 0, r.EmailsFound)
	assert.Equal(t, "Error: search timed out", r.Emails)
	assert.Equal(t, ResultStatusError, r.Status)
}

func TestInvestorsWithEmails(t *testing.T) {
	t.Parallel()

	now := time.Now()
	results := []InvestorResult{
		NewSuccessResult("a", InvestorTypePerson, []string{"a@fund.com"}, now),
		NewSuccessResult("b", InvestorTypePerson, nil, now),
		NewErrorResult("c", InvestorTypeCompany, "boom", now),
		NewSuccessResult("d", InvestorTypeCompany, []string{"x@d.vc", "y@d.vc"}, now),
	}
	assert.Equal(t, 2, InvestorsWithEmails(results))
	assert.Equal(t, 0, InvestorsWithEmails(nil))
}
