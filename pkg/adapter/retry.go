package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// RetryPolicy bounds remote calls: at most Attempts tries, sleeping
// BaseDelay × attempt after each failed try except the last.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay}
}

// Delay returns the sleep after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt)
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}

	return p.Attempts
}

// linearBackOff implements backoff.BackOff with delays growing by BaseDelay per attempt.
type linearBackOff struct {
	policy  RetryPolicy
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++

	return b.policy.Delay(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// RetryError is the terminal failure of a retried remote call.
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

type temporary interface {
	Temporary() bool
}

// IsRetryable reports whether another attempt could succeed. Errors that
// expose Temporary() decide for themselves; cancellation is never retried;
// anything else is treated as a transport failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}

	return true
}

// Retry runs fn under the policy and wraps the final failure in a *RetryError.
func Retry[T any](ctx context.Context, policy RetryPolicy, logger *slog.Logger, op string, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0

	operation := func() (T, error) {
		attempt++

		result, err := fn(ctx)
		if err != nil && !IsRetryable(err) {
			return result, backoff.Permanent(err)
		}

		return result, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&linearBackOff{policy: policy}),
		backoff.WithMaxTries(uint(policy.attempts())),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("remote call failed, retrying", "op", op, "attempt", attempt, "next_in", next, "error", err)
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}

		return result, &RetryError{Op: op, Attempts: attempt, Err: err}
	}

	return result, nil
}

// RetryDo is Retry for calls without a result.
func RetryDo(ctx context.Context, policy RetryPolicy, logger *slog.Logger, op string, fn func(context.Context) error) error {
	_, err := Retry(ctx, policy, logger, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})

	return err
}
