package config

import (
	"fmt"

	"interviewai/internal/errors"
)

// Gateway roles. Each role gets its own client instance built once at startup.
const (
	OperationAnalysis = "analysis"
	OperationResearch = "research"
	OperationConduct  = "conduct"
)

// applyOperationDefaults fills unset override fields from the global AI config
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil || *opCfg.Timeout <= 0 {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.MaxOutputTokens == nil {
		maxTokens := c.AI.MaxOutputTokens
		opCfg.MaxOutputTokens = &maxTokens
	}
	if opCfg.UseSystemPrompts == nil {
		useSystem := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &useSystem
	}
}

func (c *Config) operationConfig(name string, override OperationAIConfig) OperationAIConfig {
	config := override
	config.Name = name
	c.applyOperationDefaults(&config)
	return config
}

// GetAnalysisConfig returns the resume analysis gateway configuration
func (c *Config) GetAnalysisConfig() OperationAIConfig {
	return c.operationConfig(OperationAnalysis, c.AI.Analysis)
}

// GetResearchConfig returns the company research gateway configuration
func (c *Config) GetResearchConfig() OperationAIConfig {
	return c.operationConfig(OperationResearch, c.AI.Research)
}

// GetConductConfig returns the interview conduct gateway configuration
func (c *Config) GetConductConfig() OperationAIConfig {
	return c.operationConfig(OperationConduct, c.AI.Conduct)
}

// GetOperationConfig returns the configuration for a gateway role by name
func (c *Config) GetOperationConfig(name string) (OperationAIConfig, error) {
	switch name {
	case OperationAnalysis:
		return c.GetAnalysisConfig(), nil
	case OperationResearch:
		return c.GetResearchConfig(), nil
	case OperationConduct:
		return c.GetConductConfig(), nil
	default:
		return OperationAIConfig{}, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown AI operation: %s", name), nil)
	}
}

func (c *Config) validateProviders() error {
	for _, op := range []OperationAIConfig{c.GetAnalysisConfig(), c.GetResearchConfig(), c.GetConductConfig()} {
		switch op.Provider {
		case ProviderGemini, ProviderAnthropic, ProviderStatic:
		default:
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("unsupported AI provider for %s: %s", op.Name, op.Provider), nil)
		}
	}

	switch c.Search.Provider {
	case SearchProviderTavily:
	case SearchProviderGoogle:
		if c.GetResearchConfig().Provider != ProviderGemini {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"search.provider google requires the gemini provider for research", nil)
		}
	default:
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported search provider: %s", c.Search.Provider), nil)
	}
	return nil
}
