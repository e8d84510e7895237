package resilience

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"interviewai/internal/errors"

	"github.com/cenkalti/backoff/v5"
)

const maxBackoff = 30 * time.Second

// RetryPolicy controls Retry. MaxRetries of zero runs fn exactly once.
type RetryPolicy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	IsRetryable func(error) bool
}

// Retry runs fn, retrying retryable failures with exponential backoff and jitter.
func Retry[T any](ctx context.Context, policy RetryPolicy, operation string, logger *errors.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}

	attempts := 0
	var lastErr error
	attempt := func() (T, error) {
		attempts++
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if policy.IsRetryable == nil || !policy.IsRetryable(err) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}

	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.Warn("Retrying operation",
				"operation", operation,
				"attempt", attempts,
				"max_retries", policy.MaxRetries,
				"next_delay", next.String(),
				"error", err.Error())
		}
	}

	result, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(newBackOff(policy.BaseDelay)),
		backoff.WithMaxTries(uint(policy.MaxRetries)+1),
		backoff.WithNotify(notify))
	if err == nil {
		if attempts > 1 && logger != nil {
			logger.Info("Operation succeeded after retry", "operation", operation, "total_attempts", attempts)
		}
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if lastErr == nil {
		lastErr = err
	}
	if policy.MaxRetries == 0 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, policy.MaxRetries, lastErr)
}

// newBackOff doubles from base with 10% jitter, capped at 30s.
func newBackOff(base time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0.1
	b.MaxInterval = maxBackoff
	b.Reset()
	return b
}

// RetryableStatus reports whether an HTTP status code signals a transient failure.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
