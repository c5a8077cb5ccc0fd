package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/sells-group/investor-scout/internal/model"
)

// StatusTracker holds the observable state of the current batch. The
// running batch is the only writer; readers take snapshots. A new batch
// resets the tracker, so observers always see the latest run.
type StatusTracker struct {
	mu     sync.RWMutex
	status model.BatchStatus
}

// NewStatusTracker creates an idle tracker.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

// Start resets the tracker for a new batch.
func (t *StatusTracker) Start(total int, resultsFile string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.status = model.BatchStatus{
		Running:     true,
		Total:       total,
		ResultsFile: resultsFile,
		StartTime:   &now,
	}
}

// SetCurrent records the investor being processed. index is 1-based.
func (t *StatusTracker) SetCurrent(index int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.CurrentInvestor = name
	t.status.Progress = index
}

// RecordError appends a per-investor error message.
func (t *StatusTracker) RecordError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Errors = append(t.status.Errors, msg)
}

// AddInvestorWithEmails bumps the count of investors that yielded at least
// one address.
func (t *StatusTracker) AddInvestorWithEmails() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.EmailsFound++
}

// Complete marks the batch finished.
func (t *StatusTracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
	t.status.CurrentInvestor = ""
}

// Fail marks the batch terminally failed with a reason.
func (t *StatusTracker) Fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
	t.status.CurrentInvestor = ""
	t.status.Errors = append(t.status.Errors, msg)
}

// Running reports whether a batch is in flight.
func (t *StatusTracker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status.Running
}

// Snapshot returns a copy safe to serve to observers.
func (t *StatusTracker) Snapshot() model.BatchStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := t.status
	snap.Errors = slices.Clone(t.status.Errors)
	if t.status.StartTime != nil {
		st := *t.status.StartTime
		snap.StartTime = &st
	}
	return snap
}
