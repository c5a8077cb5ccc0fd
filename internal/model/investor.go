package model

import (
	"strings"
	"time"
)

// InvestorType classifies an investor as an individual or an organization.
type InvestorType string

const (
	InvestorTypePerson  InvestorType = "person"
	InvestorTypeCompany InvestorType = "company"
)

// ResultStatus is the per-investor outcome recorded in result rows.
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "Success"
	ResultStatusError   ResultStatus = "Error"
)

// TimestampFormat is the wall-clock format used in result rows.
const TimestampFormat = "2006-01-02 15:04:05"

// NoEmailsFound is written to the emails column when discovery found nothing.
const NoEmailsFound = "None found"

// InvestorResult is one row of batch output.
type InvestorResult struct {
	InvestorName string       `json:"investor_name"`
	Type         InvestorType `json:"type"`
	EmailsFound  int          `json:"emails_found"`
	Emails       string       `json:"emails"`
	Status       ResultStatus `json:"status"`
	Timestamp    string       `json:"timestamp"`
}

// NewSuccessResult builds a Success row. Emails are joined with "; ";
// an empty list records NoEmailsFound with a zero count.
func NewSuccessResult(name string, typ InvestorType, emails []string, now time.Time) InvestorResult {
	joined := NoEmailsFound
	if len(emails) > 0 {
		joined = strings.Join(emails, "; ")
	}
	return InvestorResult{
		InvestorName: name,
		Type:         typ,
		EmailsFound:  len(emails),
		Emails:       joined,
		Status:       ResultStatusSuccess,
		Timestamp:    now.Format(TimestampFormat),
	}
}

// NewErrorResult builds an Error row carrying the failure message in the
// emails column so the CSV stays self-describing.
func NewErrorResult(name string, typ InvestorType, errMsg string, now time.Time) InvestorResult {
	return InvestorResult{
		InvestorName: name,
		Type:         typ,
		EmailsFound:  0,
		Emails:       "Error: " + errMsg,
		Status:       ResultStatusError,
		Timestamp:    now.Format(TimestampFormat),
	}
}

// BatchStatus is a point-in-time snapshot of a running or finished batch.
type BatchStatus struct {
	Running         bool       `json:"running"`
	CurrentInvestor string     `json:"current_investor"`
	Progress        int        `json:"progress"`
	Total           int        `json:"total"`
	ResultsFile     string     `json:"results_file"`
	Errors          []string   `json:"errors"`
	StartTime       *time.Time `json:"start_time"`
	EmailsFound     int        `json:"emails_found"`
}

// RunStatus represents the lifecycle state of a persisted batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusStopped  RunStatus = "stopped"
	RunStatusFailed   RunStatus = "failed"
)

// BatchRun is the persisted record of one batch invocation.
type BatchRun struct {
	ID          string           `json:"id"`
	Status      RunStatus        `json:"status"`
	Total       int              `json:"total"`
	Processed   int              `json:"processed"`
	EmailsFound int              `json:"emails_found"`
	ResultsFile string           `json:"results_file"`
	Error       string           `json:"error,omitempty"`
	Results     []InvestorResult `json:"results,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// InvestorsWithEmails counts results that discovered at least one address.
// This is the emails_found figure surfaced in batch status.
func InvestorsWithEmails(results []InvestorResult) int {
	n := 0
	for _, r := range results {
		if r.EmailsFound > 0 {
			n++
		}
	}
	return n
}
