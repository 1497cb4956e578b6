package pipeline

import (
	"context"
	"time"
)

// Default retry settings: one attempt plus five retries, starting at one second.
const (
	DefaultMaxRetries     = 5
	DefaultInitialBackoff = time.Second
)

// Backoff is the bounded exponential retry policy for the extraction call.
type Backoff struct {
	MaxRetries int
	Initial    time.Duration
}

// DefaultBackoff returns the 1s, 2s, 4s, 8s, 16s policy.
func DefaultBackoff() Backoff {
	return Backoff{MaxRetries: DefaultMaxRetries, Initial: DefaultInitialBackoff}
}

// Delay returns the wait before the given retry (0-based).
func (b Backoff) Delay(retry int) time.Duration {
	return b.Initial << retry
}

// Attempts is the total number of calls made before giving up.
func (b Backoff) Attempts() int {
	return max(b.MaxRetries, 0) + 1
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper backed by a timer.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retry calls fn until it succeeds or the policy is exhausted. Every failed
// attempt except the last is followed by a delay; the last failure is
// returned wrapped in a RemoteExtractionError.
func retry(ctx context.Context, b Backoff, sleep Sleeper, onRetry func(attempt int, delay time.Duration, err error), fn func(context.Context) (string, error)) (string, error) {
	var lastErr error
	attempts := b.Attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := b.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return "", &RemoteExtractionError{Attempts: attempt + 1, Err: serr}
		}
	}
	return "", &RemoteExtractionError{Attempts: attempts, Err: lastErr}
}
