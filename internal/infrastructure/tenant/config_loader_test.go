package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigGeneratesSecretsOnFirstLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfigIn(dir, "acme")
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.TenantCode)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.AESKey)
	assert.Equal(t, "sqlite3", cfg.DatabaseType)
	assert.Equal(t, DatabasePathIn(dir, "acme"), cfg.SQLitePath)

	_, err = os.Stat(filepath.Join(dir, "config", "acme", "env.json"))
	assert.NoError(t, err, "first load must persist the generated config")
}

func TestLoadConfigIsStableAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadConfigIn(dir, "acme")
	require.NoError(t, err)

	second, err := LoadConfigIn(dir, "ACME")
	require.NoError(t, err)

	assert.Equal(t, first.JWTSecret, second.JWTSecret)
	assert.Equal(t, first.AESKey, second.AESKey)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfigIn(dir, "acme")
	require.NoError(t, err)

	cfg.ActivationToken = "tok-123"
	require.NoError(t, SaveConfigIn(dir, cfg))

	reloaded, err := LoadConfigIn(dir, "acme")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", reloaded.ActivationToken)
}
