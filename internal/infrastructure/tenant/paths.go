// Package tenant manages tenant database resolution, health checking,
// repair, and connection binding, isolating multi-tenancy logic from the
// rest of the application.
package tenant

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/LedgerLine/ledgerline-go/pkg/config"
)

// DatabasePathIn derives the canonical database location for a tenant code
// under a given data root. It is a pure function of its inputs: the code is
// lower-cased so "ACME" and "acme" map to the same file.
func DatabasePathIn(dataRoot, code string) string {
	return filepath.Join(dataRoot, "databases", fmt.Sprintf("erp_%s.db", strings.ToLower(code)))
}

// DatabasePath derives the database location for a tenant code under the
// configured data root.
func DatabasePath(code string) string {
	return DatabasePathIn(config.DataRoot, code)
}

// NormalizeCode lower-cases and trims a tenant code for case-insensitive
// comparison and storage.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
