package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks fills secrets and derived values the config file left empty
func (c *Config) applyFallbacks() {
	c.applyAIKeyFallbacks()
	c.applySearchKeyFallbacks()
	c.applyServerAPIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyAIKeyFallbacks reads provider-specific key variables when no key is configured
func (c *Config) applyAIKeyFallbacks() {
	if c.AI.APIKey != "" {
		return
	}
	var candidates []string
	switch c.AI.Provider {
	case ProviderAnthropic:
		candidates = []string{"ANTHROPIC_API_KEY"}
	default:
		candidates = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	c.AI.APIKey = firstEnv(candidates...)
}

func (c *Config) applySearchKeyFallbacks() {
	if c.Search.APIKey == "" && c.Search.Provider == SearchProviderTavily {
		c.Search.APIKey = firstEnv("TAVILY_API_KEY")
	}
}

func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("INTERVIEWAI_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
	}
}

func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != TLSModeDisabled {
		c.Server.TLS.MinVersion = "1.2"
	}
	if c.Server.TLS.Mode == TLSModeServer {
		c.Server.CookieSecure = true
	}
}

func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case len(value) > 0:
		return "****"
	default:
		return ""
	}
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"INTERVIEWAI_AI_APIKEY",
		"INTERVIEWAI_AI_PROVIDER",
		"INTERVIEWAI_AI_MODEL",
		"INTERVIEWAI_SEARCH_APIKEY",
		"INTERVIEWAI_SEARCH_PROVIDER",
		"INTERVIEWAI_SERVER_PORT",
		"INTERVIEWAI_SERVER_HOST",
		"INTERVIEWAI_APP_LOGLEVEL",
		"INTERVIEWAI_VAULT_ENABLED",
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"ANTHROPIC_API_KEY",
		"TAVILY_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	log.Printf("[CONFIG] AI API Key: %s", configuredLabel(c.AI.APIKey))
	log.Printf("[CONFIG] Search Provider: %s", c.Search.Provider)
	log.Printf("[CONFIG] Search API Key: %s", configuredLabel(c.Search.APIKey))
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] === Gateway Roles ===")
	for _, op := range []OperationAIConfig{c.GetAnalysisConfig(), c.GetResearchConfig(), c.GetConductConfig()} {
		log.Printf("[CONFIG] %s - Provider: %s, Model: %s, Timeout: %s", op.Name, op.Provider, op.Model, *op.Timeout)
	}

	log.Println("[CONFIG] =====================================")
}

func configuredLabel(secret string) string {
	if secret == "" {
		return "***NOT SET***"
	}
	return "***CONFIGURED***"
}
