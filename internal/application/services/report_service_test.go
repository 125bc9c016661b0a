package services

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/database"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
)

func newReportContext(t *testing.T) *tenant.Context {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewTableCreator().CreateSchema(db))

	_, err = db.Exec(`INSERT INTO customers (name, email, balance) VALUES ('Acme Widgets', 'ap@acme.test', 120.50)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO sales (invoice_no, customer_id, total, status) VALUES ('INV-001', 1, 120.50, 'open')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO products (sku, name, quantity_on_hand, unit_price) VALUES ('W-1', 'Widget', 10, 2.5)`)
	require.NoError(t, err)

	return &tenant.Context{TenantCode: "acme", Conn: db}
}

func TestReportServiceRun(t *testing.T) {
	svc := NewReportService(performance.NewTracker(nil))
	tc := newReportContext(t)

	rows, err := svc.Run(context.Background(), tc, "sales-summary")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-001", rows[0]["invoice_no"])
	assert.Equal(t, "Acme Widgets", rows[0]["customer"])

	rows, err = svc.Run(context.Background(), tc, "inventory-valuation")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 25.0, rows[0]["value"])
}

func TestReportServiceRunUnknownName(t *testing.T) {
	svc := NewReportService(performance.NewTracker(nil))
	tc := newReportContext(t)

	_, err := svc.Run(context.Background(), tc, "no-such-report")
	assert.Error(t, err)
}

func TestReportServiceReportNames(t *testing.T) {
	svc := NewReportService(performance.NewTracker(nil))
	names := svc.ReportNames()
	assert.Contains(t, names, "sales-summary")
	assert.Contains(t, names, "trial-balance")
	assert.Len(t, names, 5)
}

func TestReportServiceAdhocQueryAndExec(t *testing.T) {
	svc := NewReportService(performance.NewTracker(nil))
	tc := newReportContext(t)

	res, err := svc.Exec(context.Background(), tc,
		`INSERT INTO customers (name, email, balance) VALUES (?, ?, ?)`,
		[]any{"Globex", "billing@globex.test", 0.0})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.RowsAffected)

	rows, err := svc.Query(context.Background(), tc,
		`SELECT name FROM customers WHERE email = ?`, []any{"billing@globex.test"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Globex", rows[0]["name"])
}
