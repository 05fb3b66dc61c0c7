package tracker

import (
	"context"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (default: 2)
	MaxRetries int
	// BaseDelay is the delay before the first retry (default: 500ms)
	BaseDelay time.Duration
	// MaxDelay caps the delay between retries (default: 4s)
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
// Uses exponential backoff with delays of 500ms, 1s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   4 * time.Second,
	}
}

// Delay calculates the delay for a given retry attempt.
// Uses exponential backoff: delay = baseDelay * 2^(attempt-1)
// Attempt 1: 500ms, Attempt 2: 1s, Attempt 3: 2s
func (r RetryConfig) Delay(attempt int) time.Duration {
	if attempt <= 0 || r.BaseDelay <= 0 {
		return 0
	}

	multiplier := 1 << (attempt - 1)
	delay := r.BaseDelay * time.Duration(multiplier)

	if delay > r.MaxDelay || delay <= 0 {
		delay = r.MaxDelay
	}

	return delay
}

// sleepContext waits for d or until ctx ends, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
