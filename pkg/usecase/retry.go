package usecase

import (
	"context"
	"time"
)

// RetryPolicy configures exponential backoff for enrichment and sink calls
type RetryPolicy struct {
	BaseDelay   time.Duration // Delay before the first retry
	Factor      float64       // Multiplier applied per attempt
	MaxDelay    time.Duration // Upper bound on a single delay
	MaxAttempts int           // Retries after the initial attempt
}

// maxTries is the total number of calls: the initial attempt plus retries.
func (p RetryPolicy) maxTries() int {
	return p.MaxAttempts + 1
}

// DefaultRetryPolicy returns the standard policy: 1s base, doubling,
// capped at 60s, five retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay:   time.Second,
		Factor:      2,
		MaxDelay:    60 * time.Second,
		MaxAttempts: 5,
	}
}

// Delay returns the backoff before retry number attempt (1-based: the delay
// after the attempt-th failure).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Factor)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
