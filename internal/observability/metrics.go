package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Wizard events counted by RecordEvent.
const (
	EventSessionStarted     = "session_started"
	EventExtraction         = "extraction"
	EventInterviewPrepared  = "interview_prepared"
	EventQuestionAsked      = "question_asked"
	EventAnswerEvaluated    = "answer_evaluated"
	EventInterviewCompleted = "interview_completed"
	EventRateLimitHit       = "rate_limit_hit"
)

// Metrics holds all custom instruments.
type Metrics struct {
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	SessionsStarted     metric.Int64Counter
	Extractions         metric.Int64Counter
	InterviewsPrepared  metric.Int64Counter
	QuestionsAsked      metric.Int64Counter
	AnswersEvaluated    metric.Int64Counter
	InterviewsCompleted metric.Int64Counter
	ResumeSize          metric.Int64Histogram

	RateLimitHits metric.Int64Counter
}

// TokenUsage mirrors the token counts reported by the AI gateways.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"interviewai_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}
	if m.AIRequestCount, err = meter.Int64Counter(
		"interviewai_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}
	if m.AIErrorCount, err = meter.Int64Counter(
		"interviewai_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Histogram(
		"interviewai_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.SessionsStarted, "interviewai_sessions_started_total", "Sessions that selected a job"},
		{&m.Extractions, "interviewai_extraction_total", "Resume text extractions"},
		{&m.InterviewsPrepared, "interviewai_interviews_prepared_total", "Preparation runs (analysis and research)"},
		{&m.QuestionsAsked, "interviewai_questions_asked_total", "Interview questions generated"},
		{&m.AnswersEvaluated, "interviewai_answers_evaluated_total", "Answers submitted for evaluation"},
		{&m.InterviewsCompleted, "interviewai_interviews_completed_total", "Interviews that reached the final question"},
		{&m.RateLimitHits, "interviewai_rate_limit_hits_total", "Requests rejected by the rate limiter"},
	}
	for _, c := range counters {
		if *c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	if m.ResumeSize, err = meter.Int64Histogram(
		"interviewai_resume_text_chars",
		metric.WithDescription("Characters of text extracted from uploaded resumes"),
		metric.WithUnit("{char}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create resume size metric: %w", err)
	}
	return m, nil
}

func (m *Metrics) counter(event string) metric.Int64Counter {
	switch event {
	case EventSessionStarted:
		return m.SessionsStarted
	case EventExtraction:
		return m.Extractions
	case EventInterviewPrepared:
		return m.InterviewsPrepared
	case EventQuestionAsked:
		return m.QuestionsAsked
	case EventAnswerEvaluated:
		return m.AnswersEvaluated
	case EventInterviewCompleted:
		return m.InterviewsCompleted
	case EventRateLimitHit:
		return m.RateLimitHits
	}
	return nil
}

// TrackAIOperation runs fn inside a span and records duration, request,
// error and token metrics for the operation.
func (m *Manager) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) (*TokenUsage, error)) error {
	if !m.Enabled() || m.metrics == nil {
		_, err := fn(ctx)
		return err
	}

	ctx, span := m.Tracer("interviewai.interview").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	usage, err := fn(ctx)
	duration := time.Since(start).Seconds()

	aiCfg := m.opts.Metrics.AIOperations
	if aiCfg.Enabled {
		attrs := []attribute.KeyValue{
			attribute.String("operation", operation),
			attribute.Bool("success", err == nil),
		}
		if aiCfg.TrackDuration {
			m.metrics.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.metrics.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.metrics.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if usage != nil && aiCfg.TrackTokenUsage {
			m.recordTokens(ctx, usage, operation)
		}
		span.SetAttributes(attrs...)
	}

	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *Manager) recordTokens(ctx context.Context, usage *TokenUsage, operation string) {
	for _, tt := range []struct {
		kind  string
		value int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.metrics.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.kind),
		))
	}
}

// RecordEvent counts a wizard event.
func (m *Manager) RecordEvent(ctx context.Context, event string, success bool, attrs ...attribute.KeyValue) {
	if !m.Enabled() || m.metrics == nil {
		return
	}
	custom := m.opts.Metrics
	if event == EventRateLimitHit {
		if !custom.Infrastructure.Enabled || !custom.Infrastructure.TrackRateLimits {
			return
		}
	} else if !custom.BusinessMetrics.Enabled {
		return
	}

	counter := m.metrics.counter(event)
	if counter == nil {
		return
	}
	if custom.BusinessMetrics.TrackSuccessRates || event == EventRateLimitHit {
		attrs = append([]attribute.KeyValue{attribute.Bool("success", success)}, attrs...)
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordResumeSize records the size of an extracted resume.
func (m *Manager) RecordResumeSize(ctx context.Context, chars int, fileType string) {
	if !m.Enabled() || m.metrics == nil {
		return
	}
	custom := m.opts.Metrics.BusinessMetrics
	if !custom.Enabled || !custom.TrackContentSizes {
		return
	}
	m.metrics.ResumeSize.Record(ctx, int64(chars), metric.WithAttributes(attribute.String("file_type", fileType)))
}

// ObserveSessions registers a gauge reporting live sessions per stage.
func (m *Manager) ObserveSessions(count func() map[string]int) error {
	if !m.Enabled() || m.meterProvider == nil {
		return nil
	}
	infra := m.opts.Metrics.Infrastructure
	if !infra.Enabled || !infra.TrackSessions {
		return nil
	}

	meter := m.meterProvider.Meter(m.opts.ServiceName)
	_, err := meter.Int64ObservableGauge(
		"interviewai_sessions_active",
		metric.WithDescription("Live wizard sessions by stage"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for stage, n := range count() {
				o.Observe(int64(n), metric.WithAttributes(attribute.String("stage", stage)))
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create active sessions metric: %w", err)
	}
	return nil
}
