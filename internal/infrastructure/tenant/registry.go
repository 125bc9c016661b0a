package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
)

// ErrProfileNotFound is returned when an identity has no company profile.
var ErrProfileNotFound = errors.New("profile not found")

// ErrTenantNotFound is returned when a company code is not registered.
var ErrTenantNotFound = errors.New("tenant not found")

// Registry maps identities and company codes to tenant metadata. It is
// backed by the central main database, never by a tenant database.
type Registry struct {
	db     *sql.DB
	path   string
	logger *logging.ChanneledLogger
}

// NewRegistry opens the main database and returns a registry over it.
func NewRegistry(mainPath string, logger *logging.ChanneledLogger) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(mainPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", mainPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open main database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("main database ping failed: %w", err)
	}

	return &Registry{db: db, path: mainPath, logger: logger}, nil
}

// FindProfileByIdentity resolves an identity (username or email) to its
// active company profile.
func (r *Registry) FindProfileByIdentity(ctx context.Context, identity string) (*tenancy.Profile, error) {
	const q = `
		SELECT c.id, c.code, c.is_active
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		JOIN companies c ON c.id = p.company_id
		WHERE LOWER(u.username) = LOWER(?) OR LOWER(u.email) = LOWER(?)`

	profile := &tenancy.Profile{Identity: identity}
	err := r.db.QueryRowContext(ctx, q, identity, identity).
		Scan(&profile.TenantID, &profile.TenantCode, &profile.IsActive)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}
	return profile, nil
}

// GetTenant returns the company record for a code, case-insensitively.
func (r *Registry) GetTenant(ctx context.Context, code string) (*tenancy.Tenant, error) {
	const q = `
		SELECT id, code, display_name, database_type, COALESCE(database_url, ''), is_active
		FROM companies WHERE code = ?`

	t := &tenancy.Tenant{}
	err := r.db.QueryRowContext(ctx, q, NormalizeCode(code)).
		Scan(&t.ID, &t.Code, &t.DisplayName, &t.DatabaseType, &t.DatabaseURL, &t.IsActive)
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}
	return t, nil
}

// ListTenants returns all registered companies.
func (r *Registry) ListTenants(ctx context.Context) ([]tenancy.Tenant, error) {
	const q = `
		SELECT id, code, display_name, database_type, COALESCE(database_url, ''), is_active
		FROM companies ORDER BY code`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("tenant list failed: %w", err)
	}
	defer rows.Close()

	var tenants []tenancy.Tenant
	for rows.Next() {
		var t tenancy.Tenant
		if err := rows.Scan(&t.ID, &t.Code, &t.DisplayName, &t.DatabaseType, &t.DatabaseURL, &t.IsActive); err != nil {
			return nil, fmt.Errorf("tenant scan failed: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// CreateTenant registers a new company. The code is stored lowercase.
func (r *Registry) CreateTenant(ctx context.Context, t *tenancy.Tenant) error {
	const q = `
		INSERT INTO companies (code, display_name, database_type, database_url, is_active)
		VALUES (?, ?, ?, ?, ?)`

	dbType := t.DatabaseType
	if dbType == "" {
		dbType = "sqlite3"
	}

	res, err := r.db.ExecContext(ctx, q, NormalizeCode(t.Code), t.DisplayName, dbType, t.DatabaseURL, t.IsActive)
	if err != nil {
		return fmt.Errorf("failed to register company %s: %w", t.Code, err)
	}
	t.ID, _ = res.LastInsertId()
	return nil
}

// SetActive flips the active flag for a company.
func (r *Registry) SetActive(ctx context.Context, code string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE companies SET is_active = ? WHERE code = ?`, active, NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("failed to update company %s: %w", code, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// CreateIdentity inserts a user and links it to a company profile.
func (r *Registry) CreateIdentity(ctx context.Context, username, email, passwordHash string, companyID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", username, err)
	}
	userID, _ := res.LastInsertId()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id, company_id) VALUES (?, ?)`,
		userID, companyID); err != nil {
		return fmt.Errorf("failed to create profile for %s: %w", username, err)
	}

	return tx.Commit()
}

// CountActive returns the number of active companies.
func (r *Registry) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies WHERE is_active = 1`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active companies: %w", err)
	}
	return n, nil
}

// Count returns the total number of registered companies.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return n, nil
}

// DB exposes the underlying main database handle for schema bootstrap and
// admin reporting.
func (r *Registry) DB() *sql.DB {
	return r.db
}

// Path returns the main database location.
func (r *Registry) Path() string {
	return r.path
}

// Close closes the main database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}
