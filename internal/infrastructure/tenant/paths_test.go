package tenant

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabasePathIn(t *testing.T) {
	path := DatabasePathIn("/data", "acme")
	assert.Equal(t, filepath.Join("/data", "databases", "erp_acme.db"), path)
}

func TestDatabasePathInIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, DatabasePathIn("/data", "ACME"), DatabasePathIn("/data", "acme"))
	assert.Equal(t, DatabasePathIn("/data", "Acme"), DatabasePathIn("/data", "acme"))
}

func TestDatabasePathInIsDeterministic(t *testing.T) {
	first := DatabasePathIn("/data", "northwind")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DatabasePathIn("/data", "northwind"))
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "acme", NormalizeCode("  ACME "))
	assert.Equal(t, "acme", NormalizeCode("acme"))
}
