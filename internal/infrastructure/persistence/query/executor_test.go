package query

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		unit_price REAL NOT NULL DEFAULT 0)`)
	require.NoError(t, err)
	return db
}

func TestExecAndSelect(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	res, err := Exec(ctx, db, `INSERT INTO products (sku, name, unit_price) VALUES (?, ?, ?)`,
		"WID-1", "Widget", 9.95)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Equal(t, int64(1), res.LastInsertID)

	rows, err := Select(ctx, db, `SELECT sku, name, unit_price FROM products WHERE sku = ?`, "WID-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "WID-1", rows[0]["sku"])
	assert.Equal(t, "Widget", rows[0]["name"])
	assert.Equal(t, 9.95, rows[0]["unit_price"])
}

func TestSelectParameterizationIsLiteral(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := Exec(ctx, db, `INSERT INTO products (sku, name) VALUES (?, ?)`, "WID-1", "Widget")
	require.NoError(t, err)

	// A would-be injection travels as a plain value and matches nothing.
	rows, err := Select(ctx, db, `SELECT * FROM products WHERE name = ?`, "Widget' OR '1'='1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSelectEmptyResult(t *testing.T) {
	db := newTestDB(t)

	rows, err := Select(context.Background(), db, `SELECT * FROM products`)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSelectInvalidSQL(t *testing.T) {
	db := newTestDB(t)

	_, err := Select(context.Background(), db, `SELECT FROM nowhere`)
	assert.Error(t, err)
}
