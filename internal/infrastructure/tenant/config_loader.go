package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/security"
	"github.com/LedgerLine/ledgerline-go/pkg/config"
)

// Config holds per-tenant settings persisted under the data root. Secrets
// are generated on first load so a freshly provisioned tenant is usable
// without hand-editing files.
type Config struct {
	TenantCode      string `json:"tenantCode"`
	JWTSecret       string `json:"jwtSecret"`
	AESKey          string `json:"aesKey"`
	DatabaseType    string `json:"databaseType"`
	LibsqlURL       string `json:"libsqlUrl,omitempty"`
	LibsqlToken     string `json:"libsqlToken,omitempty"`
	ActivationToken string `json:"activationToken,omitempty"`

	SQLitePath string `json:"-"`
}

func configPath(dataRoot, code string) string {
	return filepath.Join(dataRoot, "config", NormalizeCode(code), "env.json")
}

// LoadConfig reads a tenant's config from disk, creating it with fresh
// secrets when missing.
func LoadConfig(code string) (*Config, error) {
	return LoadConfigIn(config.DataRoot, code)
}

// LoadConfigIn is LoadConfig rooted at an explicit data directory.
func LoadConfigIn(dataRoot, code string) (*Config, error) {
	code = NormalizeCode(code)
	path := configPath(dataRoot, code)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := &Config{
			TenantCode:   code,
			JWTSecret:    security.GenerateSecureToken(32),
			AESKey:       security.GenerateSecureKey(32),
			DatabaseType: "sqlite3",
		}
		if err := SaveConfigIn(dataRoot, cfg); err != nil {
			return nil, err
		}
		cfg.SQLitePath = DatabasePathIn(dataRoot, code)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant config for %s: %w", code, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tenant config for %s: %w", code, err)
	}
	if cfg.TenantCode == "" {
		cfg.TenantCode = code
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "sqlite3"
	}

	changed := false
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = security.GenerateSecureToken(32)
		changed = true
	}
	if cfg.AESKey == "" {
		cfg.AESKey = security.GenerateSecureKey(32)
		changed = true
	}
	if changed {
		if err := SaveConfigIn(dataRoot, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.SQLitePath = DatabasePathIn(dataRoot, code)
	return &cfg, nil
}

// SaveConfig persists a tenant config under the default data root.
func SaveConfig(cfg *Config) error {
	return SaveConfigIn(config.DataRoot, cfg)
}

// SaveConfigIn writes the config as pretty JSON, creating parent
// directories as needed.
func SaveConfigIn(dataRoot string, cfg *Config) error {
	path := configPath(dataRoot, cfg.TenantCode)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory for %s: %w", cfg.TenantCode, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tenant config for %s: %w", cfg.TenantCode, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write tenant config for %s: %w", cfg.TenantCode, err)
	}
	return nil
}
