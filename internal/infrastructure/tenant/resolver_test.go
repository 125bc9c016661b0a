package tenant

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registrySchema = []string{
	`CREATE TABLE companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		database_type TEXT NOT NULL DEFAULT 'sqlite3',
		database_url TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE user_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		company_id INTEGER NOT NULL REFERENCES companies(id),
		role TEXT NOT NULL DEFAULT 'member',
		is_active INTEGER NOT NULL DEFAULT 1,
		UNIQUE(user_id, company_id))`,
}

// newTestRegistry builds a main database seeded with the acme company and
// its user alice, plus an inactive company with user bob.
func newTestRegistry(t *testing.T, dir string) (*Registry, string) {
	t.Helper()
	mainPath := filepath.Join(dir, "erp_main.db")
	createDB(t, mainPath, append(registrySchema,
		`INSERT INTO companies (code, display_name, is_active) VALUES ('acme', 'Acme Industries', 1)`,
		`INSERT INTO companies (code, display_name, is_active) VALUES ('dormant', 'Dormant Co', 0)`,
		`INSERT INTO users (username, email, password_hash) VALUES ('alice', 'alice@acme.test', 'x')`,
		`INSERT INTO users (username, email, password_hash) VALUES ('bob', 'bob@dormant.test', 'x')`,
		`INSERT INTO user_profiles (user_id, company_id) VALUES (1, 1)`,
		`INSERT INTO user_profiles (user_id, company_id) VALUES (2, 2)`,
	))

	registry, err := NewRegistry(mainPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })
	return registry, mainPath
}

// fakeCache is a standalone binding slot for tests that do not want a
// full session.
type fakeCache struct {
	binding *tenancy.Binding
}

func (f *fakeCache) Binding() *tenancy.Binding     { return f.binding }
func (f *fakeCache) SetBinding(b *tenancy.Binding) { f.binding = b }

func newTestResolver(t *testing.T, dir string) (*Resolver, *Registry, string) {
	t.Helper()
	registry, mainPath := newTestRegistry(t, dir)
	resolver := NewResolver(registry, dir, "default", mainPath, nil)
	return resolver, registry, mainPath
}

func TestResolveKnownIdentity(t *testing.T) {
	dir := t.TempDir()
	resolver, _, _ := newTestResolver(t, dir)

	binding := resolver.Resolve(context.Background(), &fakeCache{}, "alice")
	assert.Equal(t, "acme", binding.TenantCode)
	assert.Equal(t, tenancy.ReasonNone, binding.Reason)
	assert.Equal(t, DatabasePathIn(dir, "acme"), binding.DatabasePath)
}

func TestResolveByEmail(t *testing.T) {
	dir := t.TempDir()
	resolver, _, _ := newTestResolver(t, dir)

	binding := resolver.Resolve(context.Background(), &fakeCache{}, "ALICE@ACME.TEST")
	assert.Equal(t, "acme", binding.TenantCode)
}

func TestResolveNoIdentityFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	resolver, _, mainPath := newTestResolver(t, dir)

	binding := resolver.Resolve(context.Background(), &fakeCache{}, "")
	assert.Equal(t, "default", binding.TenantCode)
	assert.Equal(t, tenancy.ReasonNoIdentity, binding.Reason)
	assert.Equal(t, mainPath, binding.DatabasePath)
}

func TestResolveUnknownIdentityFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	resolver, _, _ := newTestResolver(t, dir)

	binding := resolver.Resolve(context.Background(), &fakeCache{}, "mallory")
	assert.Equal(t, "default", binding.TenantCode)
	assert.Equal(t, tenancy.ReasonProfileNotFound, binding.Reason)
}

func TestResolveInactiveCompanyFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	resolver, _, _ := newTestResolver(t, dir)

	binding := resolver.Resolve(context.Background(), &fakeCache{}, "bob")
	assert.Equal(t, "default", binding.TenantCode)
	assert.Equal(t, tenancy.ReasonTenantInactive, binding.Reason)
}

func TestResolveCachesOncePerSession(t *testing.T) {
	dir := t.TempDir()
	resolver, registry, _ := newTestResolver(t, dir)
	cache := &fakeCache{}

	first := resolver.Resolve(context.Background(), cache, "alice")
	require.Equal(t, "acme", first.TenantCode)

	// Deactivate acme out from under the session. The cached binding
	// must still be returned verbatim.
	require.NoError(t, registry.SetActive(context.Background(), "acme", false))

	second := resolver.Resolve(context.Background(), cache, "alice")
	assert.Same(t, first, second, "a session resolves its tenant exactly once")
}

func TestResolveRegistryErrorFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	resolver, registry, _ := newTestResolver(t, dir)

	// Closing the registry makes every lookup fail.
	require.NoError(t, registry.Close())

	binding := resolver.Resolve(context.Background(), &fakeCache{}, "alice")
	assert.Equal(t, "default", binding.TenantCode)
	assert.Equal(t, tenancy.ReasonRegistryError, binding.Reason)
}
