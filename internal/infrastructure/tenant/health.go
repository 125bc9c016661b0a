package tenant

import (
	"database/sql"
	"os"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
)

// requiredTables is the minimum schema a database must carry to be usable:
// an identity table and a company table. This is an existence check, not a
// full schema validation; it runs on every uncached resolution so it stays
// deliberately cheap.
var requiredTables = []string{"users", "companies"}

// Checker determines whether a candidate database location is usable.
type Checker struct {
	logger *logging.ChanneledLogger
}

// NewChecker creates a new database health checker.
func NewChecker(logger *logging.ChanneledLogger) *Checker {
	return &Checker{logger: logger}
}

// Check produces a health verdict for a database location. It never
// returns an error: any access failure yields an invalid verdict.
func (c *Checker) Check(location string) tenancy.Verdict {
	verdict := tenancy.Verdict{Location: location, CheckedAt: time.Now().UTC()}

	if _, err := os.Stat(location); err != nil {
		return verdict
	}

	// mode=ro never creates the file when racing a concurrent repair.
	db, err := sql.Open("sqlite3", "file:"+location+"?mode=ro")
	if err != nil {
		return verdict
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return verdict
	}

	for _, table := range requiredTables {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			if err != sql.ErrNoRows && c.logger != nil {
				c.logger.Database().Warn("Health check query failed",
					"location", location, "table", table, "error", err)
			}
			return verdict
		}
	}

	verdict.IsValid = true
	return verdict
}

// IsValid reports whether the database at location carries the required
// schema. False for a missing file, an unreadable database, or a database
// lacking either required table.
func (c *Checker) IsValid(location string) bool {
	return c.Check(location).IsValid
}
