// Package store persists batch run history. The filesystem CSV is the
// primary artifact; the store keeps the queryable record behind the runs
// CLI and the control API.
package store

import (
	"context"

	"github.com/sells-group/investor-scout/internal/model"
)

// BatchFilter specifies criteria for listing batch runs.
type BatchFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for batch runs.
type Store interface {
	CreateBatch(ctx context.Context, total int, resultsFile string) (*model.BatchRun, error)
	UpdateBatchProgress(ctx context.Context, batchID string, processed, emailsFound int) error
	// SaveResults replaces the batch's result rows with the given set,
	// mirroring the checkpoint overwrite on disk.
	SaveResults(ctx context.Context, batchID string, results []model.InvestorResult) error
	CompleteBatch(ctx context.Context, batchID string, status model.RunStatus, errMsg string) error
	GetBatch(ctx context.Context, batchID string) (*model.BatchRun, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]model.BatchRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
