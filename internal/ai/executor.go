package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"time"

	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/resilience"

	"github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	defaultTimeout      = 60 * time.Second
	modelCheckTimeout   = 10 * time.Second
	defaultMaxToolCalls = 5
)

// executor carries the per-role settings and guards shared by all providers.
type executor struct {
	provider string
	cfg      config.OperationAIConfig
	breaker  *resilience.Breaker[*Response]
	logger   *errors.Logger
}

func newExecutor(provider string, cfg config.OperationAIConfig, logger *errors.Logger) executor {
	return executor{
		provider: provider,
		cfg:      cfg,
		breaker:  resilience.NewBreaker[*Response]("AI-"+cfg.Name, cfg.CircuitBreaker, logger),
		logger:   logger,
	}
}

func (e executor) timeout() time.Duration {
	if e.cfg.Timeout != nil && *e.cfg.Timeout > 0 {
		return *e.cfg.Timeout
	}
	return defaultTimeout
}

func (e executor) maxRetries() int {
	if e.cfg.MaxRetries != nil {
		return *e.cfg.MaxRetries
	}
	return 0
}

func (e executor) temperature() float32 {
	if e.cfg.Temperature != nil {
		return *e.cfg.Temperature
	}
	return 0
}

func (e executor) maxOutputTokens() int32 {
	if e.cfg.MaxOutputTokens != nil {
		return *e.cfg.MaxOutputTokens
	}
	return 0
}

func (e executor) useSystemPrompts() bool {
	return e.cfg.UseSystemPrompts == nil || *e.cfg.UseSystemPrompts
}

// BreakerStats reports the role's circuit breaker.
func (e executor) BreakerStats() map[string]any {
	return e.breaker.Stats()
}

// run wraps one provider call with tracing, the circuit breaker, optional
// retries and a per-attempt timeout. Errors come back as AppErrors.
func (e executor) run(ctx context.Context, req Request, call func(context.Context) (*Response, error)) (*Response, error) {
	tracer := otel.Tracer("interviewai.ai." + e.provider)
	ctx, span := tracer.Start(ctx, e.provider+"."+req.Operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", e.provider),
		attribute.String("ai.model", e.cfg.Model),
		attribute.String("ai.role", e.cfg.Name),
		attribute.Float64("ai.temperature", float64(e.temperature())),
		attribute.Bool("ai.web_search", req.WebSearch),
		attribute.Int("input.prompt_length", len(req.UserPrompt)),
	)

	policy := resilience.RetryPolicy{MaxRetries: e.maxRetries(), IsRetryable: IsRetryable}
	timeout := e.timeout()

	resp, err := e.breaker.Execute(func() (*Response, error) {
		return resilience.Retry(ctx, policy, req.Operation, e.logger, func(ctx context.Context) (*Response, error) {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			resp, err := call(callCtx)
			if err != nil && stderrors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, errors.NewAIError(errors.ErrCodeAITimeout,
					fmt.Sprintf("the AI service did not respond within %s, please try again", timeout), err).
					WithContext("operation", req.Operation).
					MarkRetryable()
			}
			return resp, err
		})
	})
	if err != nil {
		appErr := e.classify(req.Operation, err)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Message)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, appErr
	}

	if resp.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", resp.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", resp.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", resp.Usage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.length", len(resp.Text)),
		attribute.Int("search.queries", len(resp.SearchQueries)),
	)
	return resp, nil
}

func (e executor) classify(operation string, err error) *errors.AppError {
	if appErr, ok := errors.As(err); ok {
		return appErr
	}
	appErr := errors.NewAIError(errors.ErrCodeAIServiceFailed,
		fmt.Sprintf("Failed to generate content for %s", operation), err).
		WithContext("operation", operation).
		WithContext("provider", e.provider)
	if IsRetryable(err) {
		appErr.MarkRetryable()
	}
	return appErr
}

// IsRetryable reports whether err is a transient provider or network failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsRetryable(err) {
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var googleErr *googleapi.Error
	if stderrors.As(err, &googleErr) {
		return resilience.RetryableStatus(googleErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return resilience.RetryableStatus(genaiErr.Code)
	}
	var genaiErrPtr *genai.APIError
	if stderrors.As(err, &genaiErrPtr) {
		return resilience.RetryableStatus(genaiErrPtr.Code)
	}

	var anthropicErr *anthropic.Error
	if stderrors.As(err, &anthropicErr) {
		return resilience.RetryableStatus(anthropicErr.StatusCode) || anthropicErr.StatusCode == 529
	}

	return false
}
