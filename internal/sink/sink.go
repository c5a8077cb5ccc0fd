// Package sink persists batch results. The batch runner rewrites the full
// result set at every checkpoint, so sinks implement overwrite semantics
// rather than appends.
package sink

import (
	"context"

	"github.com/sells-group/investor-scout/internal/model"
)

// ResultSink receives the complete result set at each checkpoint.
type ResultSink interface {
	// Write replaces the sink's contents with the given results.
	Write(ctx context.Context, results []model.InvestorResult) error
	// Dest describes where results land, for status reporting.
	Dest() string
}

// Multi fans a checkpoint out to several sinks and stops on the first error.
type Multi []ResultSink

func (m Multi) Write(ctx context.Context, results []model.InvestorResult) error {
	for _, s := range m {
		if err := s.Write(ctx, results); err != nil {
			return err
		}
	}
	return nil
}

// Dest reports the first member's destination, which by convention is the
// primary CSV file.
func (m Multi) Dest() string {
	if len(m) == 0 {
		return ""
	}
	return m[0].Dest()
}
