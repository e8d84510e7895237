package resilience

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilBreakerPassesThrough(t *testing.T) {
	breaker := NewBreaker[string]("disabled", config.CircuitBreakerConfig{Enabled: false}, nil)
	assert.Nil(t, breaker)

	got, err := breaker.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.True(t, breaker.IsHealthy())
	assert.Equal(t, false, breaker.Stats()["enabled"])
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	breaker := NewBreaker[int]("AI-conduct", config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}, errors.NewLogger(0))
	require.NotNil(t, breaker)

	failing := func() (int, error) { return 0, fmt.Errorf("upstream down") }
	for range 2 {
		_, err := breaker.Execute(failing)
		require.Error(t, err)
	}

	assert.False(t, breaker.IsHealthy())
	assert.Equal(t, "open", breaker.Stats()["state"])

	called := false
	_, err := breaker.Execute(func() (int, error) { called = true; return 1, nil })
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, errors.IsRetryable(err))
	assert.Contains(t, errors.UserMessage(err), "AI-conduct")
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), RetryPolicy{
		MaxRetries:  3,
		BaseDelay:   time.Millisecond,
		IsRetryable: func(error) bool { return false },
	}, "analysis", nil, func(context.Context) (string, error) {
		attempts++
		return "", fmt.Errorf("bad request")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	got, err := Retry(context.Background(), RetryPolicy{
		MaxRetries:  2,
		BaseDelay:   time.Millisecond,
		IsRetryable: func(error) bool { return true },
	}, "research", nil, func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", fmt.Errorf("503")
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 3, attempts)
}

func TestRetryZeroRetriesReturnsOriginalError(t *testing.T) {
	original := fmt.Errorf("timeout")
	_, err := Retry(context.Background(), RetryPolicy{IsRetryable: func(error) bool { return true }},
		"conduct", nil, func(context.Context) (int, error) { return 0, original })
	assert.Same(t, original, err)
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, RetryPolicy{MaxRetries: 5, BaseDelay: time.Second, IsRetryable: func(error) bool { return true }},
		"conduct", nil, func(context.Context) (int, error) { return 0, fmt.Errorf("fail") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffDoublesWithJitter(t *testing.T) {
	b := newBackOff(time.Second)

	first := b.NextBackOff()
	assert.GreaterOrEqual(t, first, 900*time.Millisecond)
	assert.LessOrEqual(t, first, 1100*time.Millisecond)

	second := b.NextBackOff()
	assert.GreaterOrEqual(t, second, 1800*time.Millisecond)
	assert.LessOrEqual(t, second, 2200*time.Millisecond)

	for range 10 {
		b.NextBackOff()
	}
	assert.LessOrEqual(t, b.NextBackOff(), maxBackoff+maxBackoff/10)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), RetryPolicy{
		MaxRetries:  2,
		BaseDelay:   time.Millisecond,
		IsRetryable: func(error) bool { return true },
	}, "analysis", nil, func(context.Context) (string, error) {
		attempts++
		return "", fmt.Errorf("503")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "failed after 2 retries: 503")
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, RetryableStatus(code), code)
	}
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound} {
		assert.False(t, RetryableStatus(code), code)
	}
}
