package config

import (
	"fmt"
	"os"
	"strings"

	"hirescope/internal/errors"

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

// VaultSecrets defines where to find secrets in Vault. Each path points at a
// KVv2 secret whose "value" field holds the key material.
type VaultSecrets struct {
	ATSKey string `mapstructure:"atsKey"` // Path to the tracking-system credential
	AIKey  string `mapstructure:"aiKey"`  // Path to the scoring-service API key
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration. Returns
// (nil, nil) when Vault is disabled.
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

	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	if logger != nil {
		logger.Info("Connected to Vault", "address", vaultConfig.Address)
	}

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
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

// GetStringSecret retrieves a single string field from a KVv2 secret.
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	if vc == nil {
		return "", fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}

	value, ok := data[key].(string)
	if !ok {
		return "", fmt.Errorf("secret at %s is missing string field %q", path, key)
	}

	return value, nil
}

// ApplyVaultSecrets overrides API keys in config with values from Vault.
// Vault values take precedence over config file and environment values.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return err
	}
	if client == nil {
		return nil
	}

	if path := config.Vault.Secrets.ATSKey; path != "" {
		key, err := client.GetStringSecret(path, "value")
		if err != nil {
			return fmt.Errorf("failed to load ATS credential from vault: %w", err)
		}
		config.ATS.APIKey = key
		if logger != nil {
			logger.Debug("Loaded ATS credential from Vault", "path", path)
		}
	}

	if path := config.Vault.Secrets.AIKey; path != "" {
		key, err := client.GetStringSecret(path, "value")
		if err != nil {
			return fmt.Errorf("failed to load scoring API key from vault: %w", err)
		}
		config.AI.APIKey = key
		if logger != nil {
			logger.Debug("Loaded scoring API key from Vault", "path", path)
		}
	}

	return nil
}
