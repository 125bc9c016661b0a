// Package tenancy defines the core entities of tenant-database resolution:
// companies (tenants), identity profiles, session bindings, and health
// verdicts. These types carry no persistence or HTTP concerns.
package tenancy

import "time"

// Tenant represents a company whose data lives in its own database.
type Tenant struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"` // unique, stored lowercase
	DisplayName  string `json:"displayName"`
	DatabaseType string `json:"databaseType"` // "sqlite3" or "libsql"
	DatabaseURL  string `json:"databaseUrl,omitempty"`
	IsActive     bool   `json:"isActive"`
}

// Profile links an authenticated identity to its active company.
type Profile struct {
	Identity   string `json:"identity"`
	TenantID   int64  `json:"tenantId"`
	TenantCode string `json:"tenantCode"`
	IsActive   bool   `json:"isActive"`
}

// Binding is the resolved (tenant, database location) pair cached for a
// session. Once stored it is reused verbatim for every request in the
// session until the session ends or is explicitly cleared.
type Binding struct {
	TenantID     int64     `json:"tenantId"`
	TenantCode   string    `json:"tenantCode"`
	DatabasePath string    `json:"databasePath"`
	DatabaseType string    `json:"databaseType"`
	Validated    bool      `json:"validated"` // health check passed this session
	ResolvedAt   time.Time `json:"resolvedAt"`
	Reason       Reason    `json:"reason,omitempty"`
}

// Verdict is the validity assessment of a database location. It is
// transient; corruption and repair can happen out of band, so verdicts
// are recomputed on demand rather than cached.
type Verdict struct {
	Location  string    `json:"location"`
	IsValid   bool      `json:"isValid"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Reason labels why a binding fell back to the default tenant.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNoIdentity      Reason = "no-identity"
	ReasonProfileNotFound Reason = "profile-not-found"
	ReasonTenantInactive  Reason = "tenant-inactive"
	ReasonRegistryError   Reason = "registry-error"
	ReasonRepairFailed    Reason = "repair-failed"
)

// Outcome is the typed result of per-request tenant orchestration. A
// degraded request still gets served, but the state and reason make the
// fallback visible to logs, headers, and the ops stream.
type Outcome struct {
	State    OutcomeState `json:"state"`
	Reason   Reason       `json:"reason,omitempty"`
	Repaired bool         `json:"repaired"`
}

// OutcomeState classifies how a request reached its bound database.
type OutcomeState string

const (
	OutcomeOK       OutcomeState = "ok"
	OutcomeDegraded OutcomeState = "degraded"
	OutcomeFatal    OutcomeState = "fatal"
)
