package ai

import (
	"context"
)

// Operation names used for spans, metrics and the static gateway.
const (
	OpAnalyzeResume     = "analyze_resume"
	OpResearchQuestions = "research_questions"
	OpGenerateQuestion  = "generate_question"
	OpEvaluateAnswer    = "evaluate_answer"
)

// Request is one synchronous model call.
type Request struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	// WebSearch exposes the web search tool to the model for this call.
	WebSearch bool
}

// Response is the model's free-text answer.
type Response struct {
	Text          string
	Usage         *TokenUsage
	SearchQueries []string
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

func (u *TokenUsage) add(input, output int64) {
	u.InputTokens += input
	u.OutputTokens += output
	u.TotalTokens = u.InputTokens + u.OutputTokens
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// Gateway sends prompts to one configured model. Implementations are safe
// for concurrent use.
type Gateway interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// BreakerReporter is implemented by gateways guarded by a circuit breaker.
type BreakerReporter interface {
	BreakerStats() map[string]any
}
