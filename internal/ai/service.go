package ai

import (
	"context"
	"fmt"

	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/search"
)

// ToolSet is the tooling available to gateways that allow web search.
type ToolSet struct {
	Search *search.Tool
	// GoogleSearch uses Gemini's built-in grounding instead of Search.
	GoogleSearch bool
	MaxToolCalls int
}

func (t ToolSet) maxCalls() int {
	if t.MaxToolCalls > 0 {
		return t.MaxToolCalls
	}
	return defaultMaxToolCalls
}

// Gateways groups the three role gateways the orchestrator needs.
type Gateways struct {
	Analysis Gateway
	Research Gateway
	Conduct  Gateway
}

// NewGateway creates the gateway for one role configuration.
func NewGateway(cfg config.OperationAIConfig, tools ToolSet, logger *errors.Logger) (Gateway, error) {
	if logger != nil {
		logger.Debug("Initializing AI gateway",
			"provider", cfg.Provider,
			"operation_type", cfg.Name,
			"model", cfg.Model,
			"timeout", deref(cfg.Timeout),
			"max_retries", deref(cfg.MaxRetries),
			"temperature", deref(cfg.Temperature),
			"use_system_prompts", deref(cfg.UseSystemPrompts))
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiGateway(cfg, tools, logger)
	case config.ProviderAnthropic:
		return NewAnthropicGateway(cfg, tools, logger)
	case config.ProviderStatic:
		return NewStaticGateway(DemoResponder), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// NewGateways builds the analysis, research and conduct gateways from the
// application configuration, sharing one web search tool.
func NewGateways(cfg *config.Config, logger *errors.Logger) (*Gateways, error) {
	tools := ToolSet{
		GoogleSearch: cfg.Search.Provider == config.SearchProviderGoogle,
		MaxToolCalls: cfg.Search.MaxToolCalls,
	}
	if cfg.Search.Provider == config.SearchProviderTavily {
		tools.Search = search.NewTool(search.NewTavilyProvider(cfg.Search, logger))
	}

	var gateways Gateways
	for _, role := range []struct {
		cfg    config.OperationAIConfig
		target *Gateway
	}{
		{cfg.GetAnalysisConfig(), &gateways.Analysis},
		{cfg.GetResearchConfig(), &gateways.Research},
		{cfg.GetConductConfig(), &gateways.Conduct},
	} {
		gw, err := NewGateway(role.cfg, tools, logger)
		if err != nil {
			_ = gateways.Close()
			return nil, err
		}
		*role.target = gw
	}
	return &gateways, nil
}

// ModelInfo checks every role's model.
func (g *Gateways) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	return map[string]*ModelInfo{
		config.OperationAnalysis: g.Analysis.ModelInfo(ctx),
		config.OperationResearch: g.Research.ModelInfo(ctx),
		config.OperationConduct:  g.Conduct.ModelInfo(ctx),
	}
}

// BreakerStats returns circuit breaker statistics per role.
func (g *Gateways) BreakerStats() map[string]any {
	stats := map[string]any{}
	healthy := true
	for name, gw := range map[string]Gateway{
		config.OperationAnalysis: g.Analysis,
		config.OperationResearch: g.Research,
		config.OperationConduct:  g.Conduct,
	} {
		reporter, ok := gw.(BreakerReporter)
		if !ok {
			continue
		}
		s := reporter.BreakerStats()
		if state, ok := s["state"].(string); ok && state != "closed" {
			healthy = false
		}
		stats[name] = s
	}
	stats["overall_healthy"] = healthy
	return stats
}

// Close closes every gateway.
func (g *Gateways) Close() error {
	var first error
	for _, gw := range []Gateway{g.Analysis, g.Research, g.Conduct} {
		if gw == nil {
			continue
		}
		if err := gw.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
