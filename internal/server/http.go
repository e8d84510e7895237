package server

import (
	"time"

	"interviewai/internal/ai"
	"interviewai/internal/config"
	"interviewai/internal/errors"
	"interviewai/internal/formatters"
	"interviewai/internal/interview"
	"interviewai/internal/observability"
)

// SessionCookie carries the session ID between requests.
const SessionCookie = "interviewai_session"

// multipartOverhead is added to the file size limit for form boundaries and headers.
const multipartOverhead = 1 << 20

// ContinueRequest represents the request body for the continue endpoint
type ContinueRequest struct {
	JobRole     string `json:"jobRole"`
	CompanyName string `json:"companyName"`
}

// AnswerRequest represents the request body for the answer endpoint
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64
	CookieSecure   bool

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Wizard     *interview.Wizard
	Gateways   *ai.Gateways
	Catalog    *config.JobCatalog
	Formatters *formatters.FormatterRegistry
	Telemetry  *observability.Manager

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	CookieSecure   bool
	RateLimit      *config.RateLimitConfig
}

// Dependencies are the process-wide services the handlers call into.
type Dependencies struct {
	Wizard    *interview.Wizard
	Gateways  *ai.Gateways
	Catalog   *config.JobCatalog
	Telemetry *observability.Manager
}

// ServerConfigFromConfig derives the server settings from the application config.
func ServerConfigFromConfig(cfg *config.Config, version string) ServerConfig {
	rateLimit := cfg.Server.RateLimit
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize + multipartOverhead,
		CookieSecure:   cfg.Server.CookieSecure,
		RateLimit:      &rateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	catalog := deps.Catalog
	if catalog == nil {
		catalog = config.DefaultJobCatalog()
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		CookieSecure:   cfg.CookieSecure,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Wizard:         deps.Wizard,
		Gateways:       deps.Gateways,
		Catalog:        catalog,
		Formatters:     formatters.NewFormatterRegistry(),
		Telemetry:      deps.Telemetry,
		Logger:         logger,
	}
}
