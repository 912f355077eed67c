// Package retry runs fallible operations with bounded exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy configures Do.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the wait before the first retry. Each later retry
	// doubles it. There is no jitter and no upper bound.
	BaseDelay time.Duration

	// ShouldRetry reports whether err is worth another attempt.
	// nil means every error is retried.
	ShouldRetry func(err error) bool

	// Wait blocks for d or until ctx is done. nil uses a real timer.
	Wait func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns 3 retries starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// Error is returned when an operation fails permanently.
type Error struct {
	Retries int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("operation failed after %d retries: %v", e.Retries, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Delay returns the wait before retry number n (zero-based).
func (p Policy) Delay(n int) time.Duration {
	return p.BaseDelay * time.Duration(1<<n)
}

// Do invokes op until it succeeds, the policy gives up, or ctx is done.
// op runs at most MaxRetries+1 times.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	wait := p.Wait
	if wait == nil {
		wait = sleep
	}

	retries := 0
	for {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		if retries >= p.MaxRetries || (p.ShouldRetry != nil && !p.ShouldRetry(err)) {
			var zero T
			return zero, &Error{Retries: retries, Err: err}
		}

		if werr := wait(ctx, p.Delay(retries)); werr != nil {
			var zero T
			return zero, &Error{Retries: retries, Err: werr}
		}
		retries++
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
