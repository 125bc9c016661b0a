package tenant

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "erp_main.db")
	createDB(t, path, []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE companies (id INTEGER PRIMARY KEY)`,
	})
	return path
}

func TestRepairMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	repairer := NewRepairer(filepath.Join(dir, "nope.db"), nil)

	err := repairer.Repair(filepath.Join(dir, "databases", "erp_acme.db"))
	assert.ErrorIs(t, err, ErrTemplateMissing)
}

func TestRepairReplacesCorruptDatabase(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir)
	repairer := NewRepairer(template, nil)
	checker := NewChecker(nil)

	location := filepath.Join(dir, "databases", "erp_acme.db")
	require.NoError(t, os.MkdirAll(filepath.Dir(location), 0755))
	require.NoError(t, os.WriteFile(location, []byte("corrupted beyond recognition"), 0644))
	require.False(t, checker.IsValid(location))

	require.NoError(t, repairer.Repair(location))
	assert.True(t, checker.IsValid(location))

	// The repair is a template copy; the old bytes are gone.
	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "corrupted beyond recognition")
}

func TestRepairCreatesMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	repairer := NewRepairer(writeTemplate(t, dir), nil)
	checker := NewChecker(nil)

	location := filepath.Join(dir, "databases", "erp_fresh.db")
	require.NoError(t, repairer.Repair(location))
	assert.True(t, checker.IsValid(location))
}

func TestRepairLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repairer := NewRepairer(writeTemplate(t, dir), nil)

	location := filepath.Join(dir, "databases", "erp_tidy.db")
	require.NoError(t, repairer.Repair(location))
	require.NoError(t, repairer.Repair(location))

	entries, err := os.ReadDir(filepath.Dir(location))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".erp-repair-"),
			"temp file left behind: %s", entry.Name())
	}
}
