package lookup

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	// DefaultBaseDelay is the backoff multiplier when none is configured.
	DefaultBaseDelay = 700 * time.Millisecond

	// backoffCap is the hard ceiling on a single wait between attempts.
	backoffCap = 10 * time.Second

	// jitterWindow is the uniform random extra added to each wait so that
	// concurrent retriers decorrelate instead of stampeding the provider.
	jitterWindow = 200 * time.Millisecond

	// maxShift guards the bit-shift exponent against time.Duration overflow.
	maxShift = 10
)

// Retry runs fn up to maxAttempts times (first attempt plus retries). A
// fatal ClassifiedError, or any error that is not a ClassifiedError, aborts
// immediately. Retryable failures wait with jittered exponential backoff
// before the next attempt; the wait suspends only the calling goroutine and
// honors ctx cancellation. When attempts are exhausted the last error is
// returned untouched.
func Retry[T any](ctx context.Context, fn func(context.Context) (T, error), maxAttempts int, baseDelay time.Duration) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoffDelay(attempt-1, baseDelay)); err != nil {
				return zero, lastErr
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		cerr, ok := AsClassified(err)
		if !ok || !cerr.IsRetryable() {
			return zero, err
		}
	}
	return zero, lastErr
}

// backoffDelay computes the wait after the given number of failed attempts:
// min(base * 2^retries, backoffCap) plus uniform jitter in [0, jitterWindow).
func backoffDelay(retries int, base time.Duration) time.Duration {
	shift := retries
	if shift < 0 {
		shift = 0
	}
	if shift > maxShift {
		shift = maxShift
	}

	delay := base << shift
	if delay <= 0 || delay > backoffCap {
		delay = backoffCap
	}

	return delay + time.Duration(rand.Int64N(int64(jitterWindow)))
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
