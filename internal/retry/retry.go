// Package retry provides the bounded retry-with-backoff primitive used for
// readiness probes and reachability waits. Backoff is injectable so tests
// run without wall-clock delay.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// BackoffFunc returns the duration to wait before retry attempt n.
type BackoffFunc func(attempt int) time.Duration

// Exponential returns a capped exponential backoff with full jitter.
// Wait time is: rand(0, min(cap, base * multiplier^attempt))
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func Exponential(base time.Duration, multiplier float64, cap time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		factor := 1.0
		for i := 0; i < attempt; i++ {
			factor *= multiplier
		}
		backoff := time.Duration(float64(base) * factor)
		if backoff > cap {
			backoff = cap
		}
		if backoff <= 0 {
			return 0
		}
		// Full jitter: random duration between 0 and backoff
		return time.Duration(rand.Int64N(int64(backoff)))
	}
}

// Constant returns a fixed delay between attempts.
func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Default is Exponential with 250ms base, 2x multiplier, 10s cap.
var Default = Exponential(250*time.Millisecond, 2.0, 10*time.Second)

// Do calls op until it succeeds, attempts are exhausted, or ctx is done.
// The last error is wrapped in the returned error when the budget runs out.
func Do(ctx context.Context, attempts int, backoff BackoffFunc, op func(context.Context) error) error {
	if attempts < 1 {
		return fmt.Errorf("retry: attempts must be >= 1, got %d", attempts)
	}
	if backoff == nil {
		backoff = Default
	}
	var last error
	for i := 0; i < attempts; i++ {
		if last = op(ctx); last == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(i)):
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, last)
}
