package tenant

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindOpensOnce(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "erp_acme.db")
	createDB(t, location, []string{`CREATE TABLE users (id INTEGER PRIMARY KEY)`})

	binder := NewBinder(nil)
	defer binder.Close()

	first, err := binder.Bind(location)
	require.NoError(t, err)

	second, err := binder.Bind(location)
	require.NoError(t, err)

	assert.Same(t, first, second, "re-binding a bound location must return the existing handle")
	assert.Equal(t, 1, binder.OpenCount(location), "re-binding must not open a new connection cycle")
}

func TestBindSeparateLocations(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "erp_one.db")
	two := filepath.Join(dir, "erp_two.db")
	createDB(t, one, []string{`CREATE TABLE users (id INTEGER PRIMARY KEY)`})
	createDB(t, two, []string{`CREATE TABLE users (id INTEGER PRIMARY KEY)`})

	binder := NewBinder(nil)
	defer binder.Close()

	dbOne, err := binder.Bind(one)
	require.NoError(t, err)
	dbTwo, err := binder.Bind(two)
	require.NoError(t, err)

	assert.NotSame(t, dbOne, dbTwo)
}

func TestUnbindForcesReopen(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "erp_acme.db")
	createDB(t, location, []string{`CREATE TABLE users (id INTEGER PRIMARY KEY)`})

	binder := NewBinder(nil)
	defer binder.Close()

	_, err := binder.Bind(location)
	require.NoError(t, err)

	binder.Unbind(location)

	_, err = binder.Bind(location)
	require.NoError(t, err)
	assert.Equal(t, 2, binder.OpenCount(location))
}

func TestPoolInfoReportsBoundLocations(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "erp_acme.db")
	createDB(t, location, []string{`CREATE TABLE users (id INTEGER PRIMARY KEY)`})

	binder := NewBinder(nil)
	defer binder.Close()

	_, err := binder.Bind(location)
	require.NoError(t, err)

	info := binder.PoolInfo()
	require.Contains(t, info, location)
	assert.Equal(t, true, info[location]["healthy"])
}
