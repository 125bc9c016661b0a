// Package database provides tenant database instantiation
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"

	_ "github.com/mattn/go-sqlite3"
)

// TableCreator handles the creation of the database schema for a new
// tenant database. The same schema backs the main database, which doubles
// as the repair template.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the database tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedDefaults adds the default company and admin account a fresh
// database needs to be reachable. Idempotent.
func (tc *TableCreator) SeedDefaults(db *sql.DB, defaultCode, adminUser, adminPassword string) error {
	var companyID int64
	err := db.QueryRow("SELECT id FROM companies WHERE code = ?", defaultCode).Scan(&companyID)
	if err == sql.ErrNoRows {
		res, insertErr := db.Exec(
			`INSERT INTO companies (code, display_name, database_type, is_active, created_at) VALUES (?, ?, 'sqlite3', 1, ?)`,
			defaultCode, "Default Company", time.Now().UTC())
		if insertErr != nil {
			return fmt.Errorf("failed to insert default company: %w", insertErr)
		}
		companyID, _ = res.LastInsertId()
	} else if err != nil {
		return fmt.Errorf("failed to check for default company: %w", err)
	}

	var userExists bool
	err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", adminUser).Scan(&userExists)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	if !userExists {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if hashErr != nil {
			return fmt.Errorf("failed to hash admin password: %w", hashErr)
		}
		res, insertErr := db.Exec(
			`INSERT INTO users (username, email, password_hash, is_active, created_at) VALUES (?, ?, ?, 1, ?)`,
			adminUser, adminUser+"@localhost", string(hash), time.Now().UTC())
		if insertErr != nil {
			return fmt.Errorf("failed to insert admin user: %w", insertErr)
		}
		userID, _ := res.LastInsertId()
		if _, insertErr = db.Exec(
			`INSERT INTO user_profiles (user_id, company_id, role, is_active) VALUES (?, ?, 'admin', 1)`,
			userID, companyID); insertErr != nil {
			return fmt.Errorf("failed to insert admin profile: %w", insertErr)
		}
	}

	return nil
}

// EnsureMain creates the main database at path when missing and brings
// its schema and seed rows up to date. It returns true when the file was
// newly created.
func EnsureMain(path, defaultCode, adminUser, adminPassword string) (bool, error) {
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return false, fmt.Errorf("failed to open main database: %w", err)
	}
	defer db.Close()

	tc := NewTableCreator()
	if err := tc.CreateSchema(db); err != nil {
		return false, err
	}
	if err := tc.SeedDefaults(db, defaultCode, adminUser, adminPassword); err != nil {
		return false, err
	}
	return created, nil
}

// Schema definitions. The users and companies tables are the two every
// database must carry to pass a health check.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		database_type TEXT NOT NULL DEFAULT 'sqlite3',
		database_url TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		company_id INTEGER NOT NULL REFERENCES companies(id),
		role TEXT NOT NULL DEFAULT 'member',
		is_active INTEGER NOT NULL DEFAULT 1,
		UNIQUE(user_id, company_id))`,
	`CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		address TEXT,
		balance REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		address TEXT,
		balance REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT 'each',
		unit_price REAL NOT NULL DEFAULT 0,
		quantity_on_hand REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER REFERENCES customers(id),
		invoice_no TEXT NOT NULL UNIQUE,
		total REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS sale_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id INTEGER NOT NULL REFERENCES sales(id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity REAL NOT NULL,
		unit_price REAL NOT NULL,
		line_total REAL NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		supplier_id INTEGER REFERENCES suppliers(id),
		reference_no TEXT NOT NULL UNIQUE,
		total REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS purchase_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		purchase_id INTEGER NOT NULL REFERENCES purchases(id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity REAL NOT NULL,
		unit_price REAL NOT NULL,
		line_total REAL NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		balance REAL NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		entry_date TIMESTAMP NOT NULL,
		memo TEXT,
		debit REAL NOT NULL DEFAULT 0,
		credit REAL NOT NULL DEFAULT 0)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_user_profiles_user ON user_profiles(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_profiles_company ON user_profiles(company_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_customer ON sales(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_lines_sale ON sale_lines(sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_supplier ON purchases(supplier_id)`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_lines_purchase ON purchase_lines(purchase_id)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_account ON journal_entries(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries(entry_date)`,
}
