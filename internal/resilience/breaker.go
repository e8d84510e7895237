package resilience

import (
	"fmt"

	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker wraps an outbound call type with a circuit breaker.
// A nil Breaker executes calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewBreaker returns nil when the breaker is disabled in cfg.
func NewBreaker[T any](name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Info("Circuit breaker state changed",
					"name", name,
					"from", from.String(),
					"to", to.String(),
					"failure_threshold", cfg.FailureThreshold)
			}
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn under breaker protection. An open breaker fails fast with
// a retryable network error.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	result, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return result, errors.NewNetworkError(errors.ErrCodeAIServiceFailed,
			fmt.Sprintf("%s is temporarily unavailable, please try again shortly", b.cb.Name()), err).MarkRetryable()
	}
	return result, err
}

// Stats returns breaker state for the stats endpoint.
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed, or absent.
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
