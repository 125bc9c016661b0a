package tenant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, dir string) (*Manager, *Registry, string, string) {
	t.Helper()
	registry, mainPath := newTestRegistry(t, dir)

	// A dedicated template file keeps the repair source independent of
	// the fallback database.
	templatePath := filepath.Join(dir, "template.db")
	createDB(t, templatePath, []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE companies (id INTEGER PRIMARY KEY)`,
	})

	checker := NewChecker(nil)
	repairer := NewRepairer(templatePath, nil)
	binder := NewBinder(nil)
	t.Cleanup(func() { binder.Close() })
	resolver := NewResolver(registry, dir, "default", mainPath, nil)

	manager := NewManager(registry, resolver, checker, repairer, binder, mainPath, dir, nil, nil)
	return manager, registry, mainPath, templatePath
}

func TestContextForRepairsMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	manager, _, _, _ := newTestManager(t, dir)

	tc, err := manager.ContextFor(context.Background(), &fakeCache{}, "alice")
	require.NoError(t, err)

	assert.Equal(t, "acme", tc.TenantCode)
	assert.Equal(t, tenancy.OutcomeOK, tc.Outcome.State)
	assert.True(t, tc.Repaired(), "missing database must be created from the template")
	assert.NoError(t, tc.Conn.Ping())
	assert.Equal(t, DatabasePathIn(dir, "acme"), tc.Location)
}

func TestContextForSkipsCheckOnValidatedSession(t *testing.T) {
	dir := t.TempDir()
	manager, _, _, _ := newTestManager(t, dir)
	cache := &fakeCache{}

	first, err := manager.ContextFor(context.Background(), cache, "alice")
	require.NoError(t, err)
	require.True(t, first.Repaired())

	second, err := manager.ContextFor(context.Background(), cache, "alice")
	require.NoError(t, err)

	assert.False(t, second.Repaired(), "a validated session must not re-run the health check")
	assert.Equal(t, tenancy.OutcomeOK, second.Outcome.State)
	assert.Equal(t, 1, manager.Binder().OpenCount(second.Location))
}

func TestContextForUnknownIdentityServesDefault(t *testing.T) {
	dir := t.TempDir()
	manager, _, mainPath, _ := newTestManager(t, dir)

	tc, err := manager.ContextFor(context.Background(), &fakeCache{}, "mallory")
	require.NoError(t, err)

	assert.Equal(t, "default", tc.TenantCode)
	assert.Equal(t, tenancy.OutcomeDegraded, tc.Outcome.State)
	assert.Equal(t, tenancy.ReasonProfileNotFound, tc.Outcome.Reason)
	assert.Equal(t, mainPath, tc.Location)
}

func TestContextForFallsBackWhenRepairFails(t *testing.T) {
	dir := t.TempDir()
	manager, _, mainPath, templatePath := newTestManager(t, dir)

	// With no template there is nothing to repair from.
	require.NoError(t, os.Remove(templatePath))

	tc, err := manager.ContextFor(context.Background(), &fakeCache{}, "alice")
	require.NoError(t, err)

	assert.Equal(t, tenancy.OutcomeDegraded, tc.Outcome.State)
	assert.Equal(t, tenancy.ReasonRepairFailed, tc.Outcome.Reason)
	assert.Equal(t, mainPath, tc.Location, "repair failure must fall back to the shared database")
	assert.NoError(t, tc.Conn.Ping())
}

func TestContextForKeepsServingFallbackAcrossSession(t *testing.T) {
	dir := t.TempDir()
	manager, _, mainPath, templatePath := newTestManager(t, dir)
	cache := &fakeCache{}

	require.NoError(t, os.Remove(templatePath))

	first, err := manager.ContextFor(context.Background(), cache, "alice")
	require.NoError(t, err)
	require.Equal(t, mainPath, first.Location)

	// The cached binding must not pin the session to the broken
	// location: later requests land on the fallback too.
	second, err := manager.ContextFor(context.Background(), cache, "alice")
	require.NoError(t, err)
	assert.Equal(t, mainPath, second.Location)
	assert.Equal(t, tenancy.OutcomeDegraded, second.Outcome.State)
	assert.Equal(t, tenancy.ReasonRepairFailed, second.Outcome.Reason)
	assert.NoError(t, second.Conn.Ping())

	// Once the template is back, the same session heals on the next
	// request instead of riding the fallback until it expires.
	createDB(t, templatePath, []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE companies (id INTEGER PRIMARY KEY)`,
	})

	third, err := manager.ContextFor(context.Background(), cache, "alice")
	require.NoError(t, err)
	assert.Equal(t, tenancy.OutcomeOK, third.Outcome.State)
	assert.True(t, third.Repaired())
	assert.Equal(t, DatabasePathIn(dir, "acme"), third.Location)

	fourth, err := manager.ContextFor(context.Background(), cache, "alice")
	require.NoError(t, err)
	assert.False(t, fourth.Repaired(), "a healed session must validate once and stop re-checking")
}

func TestContextForRepairsCorruptDatabase(t *testing.T) {
	dir := t.TempDir()
	manager, _, _, _ := newTestManager(t, dir)

	location := DatabasePathIn(dir, "acme")
	require.NoError(t, os.MkdirAll(filepath.Dir(location), 0755))
	require.NoError(t, os.WriteFile(location, []byte("scrambled"), 0644))

	tc, err := manager.ContextFor(context.Background(), &fakeCache{}, "alice")
	require.NoError(t, err)

	assert.True(t, tc.Repaired())
	assert.Equal(t, tenancy.OutcomeOK, tc.Outcome.State)

	var name string
	err = tc.Conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='users'`).Scan(&name)
	assert.NoError(t, err)
}

func TestRepairTenantForcesTemplateCopy(t *testing.T) {
	dir := t.TempDir()
	manager, _, _, _ := newTestManager(t, dir)

	require.NoError(t, manager.RepairTenant("acme"))
	assert.True(t, manager.HealthFor("acme").IsValid)

	// Forced repair discards existing contents.
	location := DatabasePathIn(dir, "acme")
	db, err := manager.Binder().Bind(location)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (id) VALUES (42)`)
	require.NoError(t, err)

	require.NoError(t, manager.RepairTenant("acme"))

	db, err = manager.Binder().Bind(location)
	require.NoError(t, err)
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestEnsureReadyRepairsRegisteredCompanies(t *testing.T) {
	dir := t.TempDir()
	manager, _, _, _ := newTestManager(t, dir)

	require.NoError(t, manager.EnsureReady(context.Background()))

	// Only the active company gets a database.
	assert.True(t, manager.HealthFor("acme").IsValid)
	_, err := os.Stat(DatabasePathIn(dir, "dormant"))
	assert.True(t, os.IsNotExist(err))
}
