package tenant

import (
	"database/sql"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
)

// Context carries everything a request needs to touch its tenant's
// database: the binding, the live handle, and the health outcome the
// orchestration arrived at. It is built once per request and discarded.
type Context struct {
	TenantCode string
	TenantID   int64
	Config     *Config
	Conn       *sql.DB
	Location   string
	Binding    *tenancy.Binding
	Outcome    tenancy.Outcome
}

// Degraded reports whether the request landed on the fallback database.
func (c *Context) Degraded() bool {
	return c.Outcome.State == tenancy.OutcomeDegraded
}

// Repaired reports whether this request triggered a database repair.
func (c *Context) Repaired() bool {
	return c.Outcome.Repaired
}
