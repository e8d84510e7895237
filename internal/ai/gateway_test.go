package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"interviewai/internal/config"
	"interviewai/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }

func testOperationConfig(name string) config.OperationAIConfig {
	return config.OperationAIConfig{
		Name:       name,
		Provider:   config.ProviderGemini,
		Model:      "gemini-test",
		APIKey:     "test-key",
		Timeout:    timePtr(time.Second),
		MaxRetries: intPtr(0),
	}
}

func TestStaticGatewayRecordsRequests(t *testing.T) {
	gw := NewFixedGateway(map[string]string{OpAnalyzeResume: "analysis"})

	resp, err := gw.Generate(context.Background(), Request{Operation: OpAnalyzeResume, UserPrompt: "resume"})
	require.NoError(t, err)
	assert.Equal(t, "analysis", resp.Text)

	resp, err = gw.Generate(context.Background(), Request{Operation: OpResearchQuestions, WebSearch: true})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)

	require.Len(t, gw.Requests(), 2)
	last, ok := gw.LastRequest(OpResearchQuestions)
	require.True(t, ok)
	assert.True(t, last.WebSearch)
	assert.True(t, gw.ModelInfo(context.Background()).Available)
}

func TestDemoResponder(t *testing.T) {
	q, err := DemoResponder(Request{Operation: OpGenerateQuestion, UserPrompt: "- Question Number: 4 of 10"})
	require.NoError(t, err)
	assert.Equal(t, demoQuestions[3], q)

	_, err = DemoResponder(Request{Operation: OpGenerateQuestion, UserPrompt: "Question Number: 11"})
	assert.Error(t, err)

	_, err = DemoResponder(Request{Operation: "tailor"})
	assert.Error(t, err)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: fmt.Errorf("bad prompt"), want: false},
		{name: "net timeout", err: fmt.Errorf("wrapped: %w", timeoutError{}), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "googleapi 503", err: &googleapi.Error{Code: http.StatusServiceUnavailable}, want: true},
		{name: "googleapi 400", err: &googleapi.Error{Code: http.StatusBadRequest}, want: false},
		{name: "genai 429", err: genai.APIError{Code: http.StatusTooManyRequests}, want: true},
		{name: "genai 403", err: genai.APIError{Code: http.StatusForbidden}, want: false},
		{name: "retryable app error", err: errors.NewAIError(errors.ErrCodeAITimeout, "slow", nil).MarkRetryable(), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestExecutorTimeoutBecomesRetryableAIError(t *testing.T) {
	cfg := testOperationConfig(config.OperationConduct)
	cfg.Timeout = timePtr(20 * time.Millisecond)
	exec := newExecutor(config.ProviderStatic, cfg, testLogger)

	_, err := exec.run(context.Background(), Request{Operation: OpEvaluateAnswer}, func(ctx context.Context) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAITimeout))
	assert.True(t, errors.IsType(err, errors.ErrorTypeAI))
	assert.True(t, errors.IsRetryable(err))
}

func TestExecutorWrapsProviderErrors(t *testing.T) {
	exec := newExecutor(config.ProviderGemini, testOperationConfig(config.OperationAnalysis), nil)

	_, err := exec.run(context.Background(), Request{Operation: OpAnalyzeResume}, func(context.Context) (*Response, error) {
		return nil, genai.APIError{Code: http.StatusServiceUnavailable, Message: "overloaded"}
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAIServiceFailed))
	assert.True(t, errors.IsRetryable(err))
}

func TestExecutorRetriesWhenConfigured(t *testing.T) {
	cfg := testOperationConfig(config.OperationResearch)
	cfg.MaxRetries = intPtr(1)
	exec := newExecutor(config.ProviderGemini, cfg, nil)

	attempts := 0
	resp, err := exec.run(context.Background(), Request{Operation: OpResearchQuestions}, func(context.Context) (*Response, error) {
		attempts++
		if attempts == 1 {
			return nil, &googleapi.Error{Code: http.StatusBadGateway}
		}
		return &Response{Text: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, attempts)
}

func TestExecutorBreakerOpens(t *testing.T) {
	cfg := testOperationConfig(config.OperationConduct)
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled: true, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute,
		MinRequests: 1, FailureThreshold: 0.5,
	}
	exec := newExecutor(config.ProviderGemini, cfg, nil)

	fail := func(context.Context) (*Response, error) { return nil, fmt.Errorf("boom") }
	_, err := exec.run(context.Background(), Request{Operation: OpGenerateQuestion}, fail)
	require.Error(t, err)

	_, err = exec.run(context.Background(), Request{Operation: OpGenerateQuestion}, fail)
	require.Error(t, err)
	assert.Contains(t, errors.UserMessage(err), "temporarily unavailable")
	assert.Equal(t, "open", exec.BreakerStats()["state"])
}

func TestNewGateway(t *testing.T) {
	cfg := testOperationConfig(config.OperationAnalysis)

	cfg.Provider = config.ProviderStatic
	gw, err := NewGateway(cfg, ToolSet{}, testLogger)
	require.NoError(t, err)
	assert.IsType(t, &StaticGateway{}, gw)

	cfg.Provider = "openai"
	_, err = NewGateway(cfg, ToolSet{}, testLogger)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidConfig))

	cfg.Provider = config.ProviderAnthropic
	cfg.APIKey = ""
	_, err = NewGateway(cfg, ToolSet{}, testLogger)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingAPIKey))
}

func TestNewGatewaysStatic(t *testing.T) {
	cfg := &config.Config{
		AI: config.AIConfig{
			Provider: config.ProviderStatic,
			Model:    "static",
			Timeout:  time.Second,
		},
		Search: config.SearchConfig{Provider: config.SearchProviderTavily, BaseURL: "http://localhost", MaxToolCalls: 2},
	}

	gateways, err := NewGateways(cfg, testLogger)
	require.NoError(t, err)
	defer gateways.Close()

	info := gateways.ModelInfo(context.Background())
	assert.Len(t, info, 3)
	assert.True(t, info[config.OperationConduct].Available)
	assert.Equal(t, true, gateways.BreakerStats()["overall_healthy"])
}
