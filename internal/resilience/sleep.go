package resilience

import (
	"context"
	"time"
)

// Sleep waits for d unless the context is cancelled first, in which case it
// returns the context error. Pacing delays use this so a stop request does
// not sit out a multi-second pause.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
