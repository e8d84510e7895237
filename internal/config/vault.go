package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"interviewai/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 read paths (for example "secret/data/interviewai/gemini").
type VaultSecrets struct {
	// APIKeys holds a comma-separated "keys" field for server authentication.
	APIKeys string `mapstructure:"apiKeys"`
	// AIKey holds the language model key in its "api_key" field.
	AIKey string `mapstructure:"aiKey"`
	// SearchKey holds the search tool key in its "api_key" field.
	SearchKey string `mapstructure:"searchKey"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a Vault client and verifies connectivity.
// It returns nil, nil when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", vaultConfig.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, config: config, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// KVSecret is the payload and version of one KVv2 read.
type KVSecret struct {
	Data    map[string]any
	Version int64
}

// ReadKV reads a KVv2 secret. path includes the "data/" segment.
func (vc *VaultClient) ReadKV(path string) (*KVSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	raw, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", path, err)
	}
	if raw == nil || raw.Data == nil {
		return nil, fmt.Errorf("no secret at %s", path)
	}

	data, ok := raw.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s has no KVv2 data block", path)
	}
	meta, _ := raw.Data["metadata"].(map[string]any)
	version, err := parseVersionValue(meta["version"], path)
	if err != nil {
		return nil, err
	}
	return &KVSecret{Data: data, Version: version}, nil
}

// parseVersionValue accepts every number encoding Vault's JSON decoding yields.
func parseVersionValue(raw any, path string) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad secret version at %s: %w", path, err)
		}
		return n, nil
	case interface{ Int64() (int64, error) }:
		return v.Int64()
	case nil:
		return 0, fmt.Errorf("secret at %s has no version metadata", path)
	default:
		return 0, fmt.Errorf("secret version at %s has type %T", path, raw)
	}
}

// StringField returns one string field of a KVv2 secret.
func (vc *VaultClient) StringField(path, field string) (string, error) {
	secret, err := vc.ReadKV(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[field]
	if !ok {
		return "", fmt.Errorf("field %q not found in secret %s", field, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %q in secret %s is not a string", field, path)
	}

	if vc.logger != nil {
		vc.logger.Debug("Read secret from Vault",
			"path", path,
			"field", field,
			"version", secret.Version,
			"masked_value", MaskSecret(str))
	}
	return str, nil
}

// secretBinding maps one Vault field onto the config.
type secretBinding struct {
	name  string
	path  string
	field string
	apply func(*Config, string)
}

func secretBindings(paths VaultSecrets) []secretBinding {
	return []secretBinding{
		{name: "server API keys", path: paths.APIKeys, field: "keys", apply: func(c *Config, v string) {
			if keys := splitAndTrim(v); len(keys) > 0 {
				c.Server.APIKeys = keys
			}
		}},
		{name: "AI API key", path: paths.AIKey, field: "api_key", apply: applyAIKeyToConfig},
		{name: "search API key", path: paths.SearchKey, field: "api_key", apply: func(c *Config, v string) {
			c.Search.APIKey = v
		}},
	}
}

// ApplyVaultSecrets overrides keys in config with the configured Vault secrets.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	for _, b := range secretBindings(config.Vault.Secrets) {
		if b.path == "" {
			continue
		}
		value, err := client.StringField(b.path, b.field)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", b.name, err)
		}
		if value != "" {
			b.apply(config, value)
		}
	}
	return nil
}

// applyAIKeyToConfig sets the shared key and fills operations without their own.
func applyAIKeyToConfig(config *Config, key string) {
	config.AI.APIKey = key
	for _, op := range []*OperationAIConfig{&config.AI.Analysis, &config.AI.Research, &config.AI.Conduct} {
		if op.APIKey == "" {
			op.APIKey = key
		}
	}
}
