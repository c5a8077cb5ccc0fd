// Package resilience provides the retry, circuit-breaker, and pacing
// primitives the fetch and search layers lean on. Page loads through a
// headless browser fail in bursts, so every remote call site here is
// either retried, breaker-guarded, or both.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds a retried operation.
type RetryConfig struct {
	// MaxAttempts counts the first try too; 1 disables retries. Default 3.
	MaxAttempts int

	// InitialBackoff is the pause before the first retry. Default 3s.
	InitialBackoff time.Duration

	// MaxBackoff caps the grown pause. Default 30s.
	MaxBackoff time.Duration

	// Multiplier grows the pause per attempt; 1.0 keeps it fixed. Default 1.0.
	Multiplier float64

	// JitterFraction spreads the pause by +/- the given fraction. Default 0.
	JitterFraction float64

	// ShouldRetry decides which errors earn another attempt. Nil means
	// IsTransient.
	ShouldRetry func(err error) bool

	// OnRetry runs before each retry pause with the attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig matches the page-fetch policy: three attempts with a
// fixed 3s pause. Exponential growth buys nothing against anti-bot blocks;
// they clear on a timescale of minutes or not at all.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 3 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     1.0,
		JitterFraction: 0,
	}
}

// RetryAll accepts every error. Page fetches use it: a failed load is worth
// another attempt whatever the cause, and cancellation is handled by the
// retry loop itself.
func RetryAll(err error) bool {
	return err != nil
}

// Do runs fn under cfg, retrying errors the predicate accepts. A cancelled
// context ends the loop immediately with the last error.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for operations that produce a value. On failure the zero
// value is returned alongside the last error.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr)
		}
		if err := Sleep(ctx, computeBackoff(attempt, cfg)); err != nil {
			// Cancelled mid-pause; the operation's error is the useful one.
			return zero, lastErr
		}
	}

	return zero, lastErr
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 3 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 1.0
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

func computeBackoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	d = math.Min(d, float64(cfg.MaxBackoff))
	if cfg.JitterFraction > 0 {
		spread := d * cfg.JitterFraction
		d += (rand.Float64()*2 - 1) * spread
	}
	return time.Duration(math.Max(d, 0))
}

// RetryLogger builds an OnRetry callback that logs each attempt under the
// given service and operation labels.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
