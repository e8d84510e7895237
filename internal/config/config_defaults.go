package config

import (
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted in ai.provider and per-role overrides.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderStatic    = "static"
)

// Search providers accepted in search.provider.
const (
	SearchProviderTavily = "tavily"
	SearchProviderGoogle = "google"
)

// DefaultMaxQuestions is the fixed length of one interview run.
const DefaultMaxQuestions = 10

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 0) // the user retries failed actions
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.maxOutputTokens", 4096)
	v.SetDefault("ai.useSystemPrompts", true)

	// Resume analysis: no tools, deterministic-leaning.
	v.SetDefault("ai.analysis.timeout", 90*time.Second)
	v.SetDefault("ai.analysis.temperature", 0.3)

	// Research runs tool calls and needs the longest budget.
	v.SetDefault("ai.research.timeout", 120*time.Second)
	v.SetDefault("ai.research.temperature", 0.5)

	// Question generation and answer evaluation.
	v.SetDefault("ai.conduct.timeout", 60*time.Second)
	v.SetDefault("ai.conduct.temperature", 0.7)

	for _, op := range []string{"analysis", "research", "conduct"} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", false)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Search tool
	v.SetDefault("search.provider", SearchProviderTavily)
	v.SetDefault("search.apiKey", "")
	v.SetDefault("search.baseURL", "https://api.tavily.com")
	v.SetDefault("search.maxResults", 5)
	v.SetDefault("search.searchDepth", "basic")
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.maxToolCalls", 5)
	v.SetDefault("search.circuitBreaker.enabled", false)
	v.SetDefault("search.circuitBreaker.maxRequests", 3)
	v.SetDefault("search.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("search.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("search.circuitBreaker.minRequests", 3)
	v.SetDefault("search.circuitBreaker.failureThreshold", 0.6)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 180*time.Second) // preparation runs two model calls
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.cookieSecure", false)
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "markdown")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown", "yaml"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB

	// Interview
	v.SetDefault("interview.maxQuestions", DefaultMaxQuestions)
	v.SetDefault("interview.sessionTTL", 2*time.Hour)
	v.SetDefault("interview.cleanupInterval", 10*time.Minute)
	v.SetDefault("interview.catalogFile", "")
	v.SetDefault("interview.watchPrompts", true)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.aiKey", "")
	v.SetDefault("vault.secrets.searchKey", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "interviewai")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackSuccessRates", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackSessions", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
