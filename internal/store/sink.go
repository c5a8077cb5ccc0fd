package store

import (
	"context"

	"github.com/sells-group/investor-scout/internal/model"
)

// BatchSink adapts a Store to the pipeline's checkpoint sink, so every
// checkpoint lands in batch history alongside the CSV on disk.
type BatchSink struct {
	store   Store
	batchID string
	dest    string
}

// NewBatchSink binds checkpoints to an existing batch record.
func NewBatchSink(s Store, batchID, dest string) *BatchSink {
	return &BatchSink{store: s, batchID: batchID, dest: dest}
}

func (s *BatchSink) Dest() string { return s.dest }

func (s *BatchSink) Write(ctx context.Context, results []model.InvestorResult) error {
	if err := s.store.SaveResults(ctx, s.batchID, results); err != nil {
		return err
	}
	return s.store.UpdateBatchProgress(ctx, s.batchID, len(results), model.InvestorsWithEmails(results))
}
