// Package retry runs an operation again when it fails with a transient error,
// waiting longer between each attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts bounds the number of calls. Zero means retry until ctx is done.
	MaxAttempts int

	// Backoff returns the wait after the given failed attempt (1-based).
	Backoff func(attempt int) time.Duration

	// Retryable classifies errors. Nil treats every error as retryable.
	Retryable func(err error) bool

	// OnRetry is called before each wait. Optional.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Exponential doubles base on every attempt and caps the result at max
// when max is positive.
func Exponential(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		wait := base
		for i := 1; i < attempt; i++ {
			wait *= 2
			if max > 0 && wait >= max {
				return max
			}
		}
		if max > 0 && wait > max {
			return max
		}
		return wait
	}
}

// ExhaustedError is returned when every allowed attempt failed with a
// retryable error, or the context ended while waiting for the next one.
type ExhaustedError struct {
	Attempts int
	Err      error // last operation error
	Ctx      error // context error, if the wait was interrupted
}

func (e *ExhaustedError) Error() string {
	if e.Ctx != nil {
		return fmt.Sprintf("gave up after %d attempts (%v): %v", e.Attempts, e.Ctx, e.Err)
	}
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	if e.Ctx != nil {
		return []error{e.Err, e.Ctx}
	}
	return []error{e.Err}
}

// IsExhausted reports whether err came from a policy running out of attempts.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. Non-retryable errors are returned unchanged.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempt := 0

	for {
		attempt++

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, &ExhaustedError{Attempts: attempt, Err: err}
		}

		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, &ExhaustedError{Attempts: attempt, Err: err, Ctx: ctx.Err()}
		case <-timer.C:
		}
	}
}
