package resources

import (
	"context"
	"errors"
	"io/fs"
	"time"
)

// RetryPolicy bounds how often a failed fetch is attempted again
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration

	// Timeout bounds a single attempt, zero means no limit
	Timeout time.Duration
}

// NoRetry fetches every asset exactly once
var NoRetry = RetryPolicy{Attempts: 1}

// delay returns the wait before attempt n (1-based, n >= 2)
func (p RetryPolicy) delay(n int) time.Duration {
	d := p.Backoff
	for i := 2; i < n; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// retryable reports whether another attempt could change the outcome.
// An attempt that ran out of time is retryable; the caller checks whether
// the parent context ended.
func retryable(err error) bool {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, ErrDecode),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// attempt runs fetch under the per-attempt timeout
func (p RetryPolicy) attempt(ctx context.Context, fetch func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fetch(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fetch(actx)
}

// do runs fetch until it succeeds, fails permanently, or attempts run out.
// It returns the number of attempts made.
func (p RetryPolicy) do(ctx context.Context, fetch func(ctx context.Context) error) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for n := 1; n <= attempts; n++ {
		if n > 1 {
			timer := time.NewTimer(p.delay(n))
			select {
			case <-ctx.Done():
				timer.Stop()
				return n - 1, ctx.Err()
			case <-timer.C:
			}
		}

		err = p.attempt(ctx, fetch)
		if err == nil || !retryable(err) {
			return n, err
		}
		// The cache or caller gave up, not just this attempt
		if ctx.Err() != nil {
			return n, err
		}
	}
	return attempts, err
}
