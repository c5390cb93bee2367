package apperror

import (
	"context"
	"time"
)

type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
	}
}

// wait is swapped in tests.
var wait = func(ctx context.Context, d time.Duration) error {
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

// Backoff returns the delay before the given retry (1-based), doubling from
// InitialDelay and capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retry runs op until it succeeds, returns a non-retryable error, or the
// attempts are used up. Exhausted retries surface as KindExternalService.
// The attempt number (1-based) is passed to op so callers can reset a
// connection handle before trying again.
func Retry(ctx context.Context, op string, policy RetryPolicy, fn func(ctx context.Context, attempt int) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Wrap(KindInternal, op, err)
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if werr := wait(ctx, policy.Backoff(attempt)); werr != nil {
			return Wrap(KindInternal, op, werr)
		}
	}

	return (&Error{
		Kind:    KindExternalService,
		Op:      op,
		Message: "retries exhausted",
		Err:     lastErr,
	}).WithDetail("attempts", attempts).WithDetail("last_kind", string(KindOf(lastErr)))
}
