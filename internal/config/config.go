package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"interviewai/internal/errors"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured)
// 2. Config file values
// 3. Environment variables (INTERVIEWAI_AI_APIKEY, INTERVIEWAI_SEARCH_APIKEY, ...)
// 4. Provider-specific environment variables (GEMINI_API_KEY, TAVILY_API_KEY, ...)
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Search        SearchConfig        `mapstructure:"search"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Interview     InterviewConfig     `mapstructure:"interview"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	// Prompts holds prompt text loaded from config and prompt files.
	Prompts *PromptStore `mapstructure:"-"`
	// Catalog is the job category catalog offered in the job selection stage.
	Catalog *JobCatalog `mapstructure:"-"`
}

// AIConfig holds language model configuration
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	MaxOutputTokens  int32         `mapstructure:"maxOutputTokens"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	// Per-role overrides. Unset fields fall back to the values above.
	Analysis OperationAIConfig `mapstructure:"analysis"`
	Research OperationAIConfig `mapstructure:"research"`
	Conduct  OperationAIConfig `mapstructure:"conduct"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // cyclic period for clearing counts
	Timeout          time.Duration `mapstructure:"timeout"`          // open to half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // requests seen before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// OperationAIConfig holds the resolved or override configuration for one gateway role
type OperationAIConfig struct {
	Name             string               `mapstructure:"-"`
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	MaxOutputTokens  *int32               `mapstructure:"maxOutputTokens"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// SearchConfig holds the web search tool configuration
type SearchConfig struct {
	// Provider is "tavily" (function calling backed by the Tavily API)
	// or "google" (Gemini built-in search grounding).
	Provider       string               `mapstructure:"provider"`
	APIKey         string               `mapstructure:"apiKey"`
	BaseURL        string               `mapstructure:"baseURL"`
	MaxResults     int                  `mapstructure:"maxResults"`
	SearchDepth    string               `mapstructure:"searchDepth"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxToolCalls   int                  `mapstructure:"maxToolCalls"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// APIKeys, when non-empty, are required on every wizard request.
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`

	// CookieSecure marks the session cookie Secure; forced on when TLS is enabled.
	CookieSecure bool `mapstructure:"cookieSecure"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// InterviewConfig holds wizard settings
type InterviewConfig struct {
	MaxQuestions    int           `mapstructure:"maxQuestions"`
	SessionTTL      time.Duration `mapstructure:"sessionTTL"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	CatalogFile     string        `mapstructure:"catalogFile"`
	WatchPrompts    bool          `mapstructure:"watchPrompts"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig toggles groups of custom metrics
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// BusinessMetricsConfig holds wizard-level metrics configuration
type BusinessMetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TrackSuccessRates bool `mapstructure:"trackSuccessRates"`
	TrackContentSizes bool `mapstructure:"trackContentSizes"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
	TrackSessions   bool `mapstructure:"trackSessions"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from the default search paths and the environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile loads configuration from configFile, or from the default
// search paths when configFile is empty.
func LoadConfigFile(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INTERVIEWAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'INTERVIEWAI'")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/interviewai/")
		v.AddConfigPath("$HOME/.interviewai")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to unmarshal config", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := ApplyVaultSecrets(&config, nil); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to apply vault secrets", err)
	}

	prompts, err := NewPromptStore(config.AI.CustomPrompts)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load custom prompts", err)
	}
	config.Prompts = prompts

	catalog, err := LoadJobCatalog(config.Interview.CatalogFile)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load job catalog", err)
	}
	config.Catalog = catalog

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks the configuration and fails fast on missing secrets.
func (c *Config) Validate() error {
	if c.AI.Provider != ProviderStatic {
		for _, op := range []OperationAIConfig{c.GetAnalysisConfig(), c.GetResearchConfig(), c.GetConductConfig()} {
			if op.APIKey == "" {
				return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
					fmt.Sprintf("language model API key is required for %s (set INTERVIEWAI_AI_APIKEY)", op.Name), nil)
			}
		}
	}

	if c.Search.Provider == SearchProviderTavily && c.Search.APIKey == "" {
		return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"search API key is required (set INTERVIEWAI_SEARCH_APIKEY or TAVILY_API_KEY)", nil)
	}

	if err := c.validateProviders(); err != nil {
		return err
	}

	if c.AI.Timeout <= 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "AI timeout must be positive", nil)
	}

	if c.Server.Port == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "server port is required", nil)
	}

	if c.Interview.MaxQuestions != DefaultMaxQuestions {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("interview.maxQuestions must be %d", DefaultMaxQuestions), nil)
	}

	if c.App.MaxFileSize <= 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "app.maxFileSize must be positive", nil)
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid default format: %s", c.App.DefaultFormat), nil)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "TLS configuration error", err)
	}

	return nil
}
