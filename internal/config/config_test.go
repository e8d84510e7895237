package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"interviewai/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearKeyEnv isolates tests from keys present in the developer's shell.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"INTERVIEWAI_AI_APIKEY", "INTERVIEWAI_SEARCH_APIKEY", "INTERVIEWAI_AI_PROVIDER",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "ANTHROPIC_API_KEY", "TAVILY_API_KEY",
		"INTERVIEWAI_SERVER_APIKEYS",
	} {
		t.Setenv(name, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigFailsFastWithoutKeys(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		message string
	}{
		{
			name:    "missing model key",
			env:     map[string]string{"TAVILY_API_KEY": "tvly"},
			message: "language model API key is required",
		},
		{
			name:    "missing search key",
			env:     map[string]string{"GEMINI_API_KEY": "gem"},
			message: "search API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeyEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfigFile(writeConfigFile(t, "app:\n  logLevel: info\n"))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeMissingAPIKey))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadConfigWithProviderFallbackKeys(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("TAVILY_API_KEY", "tavily-key")

	cfg, err := LoadConfigFile(writeConfigFile(t, `
ai:
  model: gemini-2.0-flash
  research:
    model: gemini-2.5-pro
    timeout: 3m
interview:
  sessionTTL: 30m
`))
	require.NoError(t, err)

	assert.Equal(t, "google-key", cfg.AI.APIKey)
	assert.Equal(t, "tavily-key", cfg.Search.APIKey)
	assert.Equal(t, 30*time.Minute, cfg.Interview.SessionTTL)
	assert.Equal(t, DefaultMaxQuestions, cfg.Interview.MaxQuestions)
	assert.NotNil(t, cfg.Prompts)
	require.NotNil(t, cfg.Catalog)
	assert.Len(t, cfg.Catalog.Categories, 6)

	research := cfg.GetResearchConfig()
	assert.Equal(t, "gemini-2.5-pro", research.Model)
	assert.Equal(t, 3*time.Minute, *research.Timeout)
	assert.Equal(t, "google-key", research.APIKey)

	analysis := cfg.GetAnalysisConfig()
	assert.Equal(t, "gemini-2.0-flash", analysis.Model)
	assert.Equal(t, 90*time.Second, *analysis.Timeout)
	assert.Equal(t, 0, *analysis.MaxRetries)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("INTERVIEWAI_AI_APIKEY", "env-ai")
	t.Setenv("INTERVIEWAI_SEARCH_APIKEY", "env-search")
	t.Setenv("INTERVIEWAI_SERVER_PORT", "9999")

	cfg, err := LoadConfigFile(writeConfigFile(t, "server:\n  port: \"8081\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-ai", cfg.AI.APIKey)
	assert.Equal(t, "env-search", cfg.Search.APIKey)
	assert.Equal(t, "9999", cfg.Server.Port)
}

func TestStaticProviderNeedsNoModelKey(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("TAVILY_API_KEY", "tavily-key")

	cfg, err := LoadConfigFile(writeConfigFile(t, "ai:\n  provider: static\n"))
	require.NoError(t, err)
	assert.Equal(t, ProviderStatic, cfg.GetConductConfig().Provider)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		timeout := 30 * time.Second
		return &Config{
			AI: AIConfig{
				Provider: ProviderGemini,
				APIKey:   "key",
				Timeout:  timeout,
			},
			Search:    SearchConfig{Provider: SearchProviderTavily, APIKey: "search"},
			Server:    ServerConfig{Port: "8080", TLS: TLSConfig{Mode: TLSModeDisabled}},
			App:       AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json"}, MaxFileSize: 1024},
			Interview: InterviewConfig{MaxQuestions: DefaultMaxQuestions},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Conduct.Provider = "openai" }, wantErr: "unsupported AI provider for conduct"},
		{name: "anthropic role", mutate: func(c *Config) { c.AI.Analysis.Provider = ProviderAnthropic }},
		{name: "google search needs gemini research", mutate: func(c *Config) {
			c.Search.Provider = SearchProviderGoogle
			c.AI.Research.Provider = ProviderAnthropic
		}, wantErr: "requires the gemini provider"},
		{name: "google search needs no key", mutate: func(c *Config) {
			c.Search.Provider = SearchProviderGoogle
			c.Search.APIKey = ""
		}},
		{name: "wrong question count", mutate: func(c *Config) { c.Interview.MaxQuestions = 5 }, wantErr: "maxQuestions"},
		{name: "zero timeout", mutate: func(c *Config) { c.AI.Timeout = 0 }, wantErr: "timeout must be positive"},
		{name: "bad default format", mutate: func(c *Config) { c.App.DefaultFormat = "pdf" }, wantErr: "invalid default format"},
		{name: "bad tls mode", mutate: func(c *Config) { c.Server.TLS.Mode = "mutual" }, wantErr: "TLS configuration error"},
		{name: "tls without files", mutate: func(c *Config) { c.Server.TLS.Mode = TLSModeServer }, wantErr: "TLS configuration error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetOperationConfig(t *testing.T) {
	temp := float32(0.1)
	cfg := &Config{AI: AIConfig{
		Provider:    ProviderGemini,
		Model:       "global-model",
		Timeout:     time.Minute,
		Temperature: 0.7,
		Conduct:     OperationAIConfig{Temperature: &temp},
	}}

	conduct, err := cfg.GetOperationConfig(OperationConduct)
	require.NoError(t, err)
	assert.Equal(t, OperationConduct, conduct.Name)
	assert.Equal(t, float32(0.1), *conduct.Temperature)
	assert.Equal(t, "global-model", conduct.Model)

	analysis, err := cfg.GetOperationConfig(OperationAnalysis)
	require.NoError(t, err)
	assert.Equal(t, float32(0.7), *analysis.Temperature)

	// Overrides must not leak back into the global config.
	*analysis.Temperature = 0.9
	assert.Equal(t, float32(0.7), cfg.AI.Temperature)

	_, err = cfg.GetOperationConfig("tailor")
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****mnop", MaskSecret("abcdefghijklmnop"))
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "", MaskSecret(""))
}

func TestTLSBuildFailsForMissingPair(t *testing.T) {
	_, err := TLSConfig{Mode: TLSModeServer, CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}.BuildServerTLSConfig()
	assert.Error(t, err)

	_, err = parseTLSVersion("1.1")
	assert.Error(t, err)
}
