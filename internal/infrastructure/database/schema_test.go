package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateSchemaIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	tc := NewTableCreator()
	require.NoError(t, tc.CreateSchema(db))
	require.NoError(t, tc.CreateSchema(db))

	for _, table := range []string{"users", "companies", "user_profiles", "customers", "products", "sales", "accounts"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	tc := NewTableCreator()
	require.NoError(t, tc.CreateSchema(db))
	require.NoError(t, tc.SeedDefaults(db, "default", "admin", "hunter22"))
	require.NoError(t, tc.SeedDefaults(db, "default", "admin", "hunter22"))

	var companies, users int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM companies`).Scan(&companies))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	assert.Equal(t, 1, companies)
	assert.Equal(t, 1, users)

	var hash string
	require.NoError(t, db.QueryRow(`SELECT password_hash FROM users WHERE username = 'admin'`).Scan(&hash))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter22")))
}

func TestEnsureMain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "erp_main.db")

	created, err := EnsureMain(path, "default", "admin", "hunter22")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureMain(path, "default", "admin", "hunter22")
	require.NoError(t, err)
	assert.False(t, created, "second run must see the existing file")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var code string
	require.NoError(t, db.QueryRow(`SELECT code FROM companies`).Scan(&code))
	assert.Equal(t, "default", code)
}
