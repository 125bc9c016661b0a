package services

import (
	"context"
	"fmt"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/persistence/query"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
)

// ReportService runs canned reports against a bound company database.
type ReportService struct {
	perfTracker *performance.Tracker
}

// NewReportService creates a new ReportService.
func NewReportService(perfTracker *performance.Tracker) *ReportService {
	return &ReportService{perfTracker: perfTracker}
}

// reports maps report names to their SQL. All statements are read-only
// and parameter-free; filtering happens client side.
var reports = map[string]string{
	"sales-summary": `
		SELECT s.invoice_no, c.name AS customer, s.total, s.status, s.created_at
		FROM sales s LEFT JOIN customers c ON c.id = s.customer_id
		ORDER BY s.created_at DESC LIMIT 100`,
	"purchase-summary": `
		SELECT p.reference_no, sp.name AS supplier, p.total, p.status, p.created_at
		FROM purchases p LEFT JOIN suppliers sp ON sp.id = p.supplier_id
		ORDER BY p.created_at DESC LIMIT 100`,
	"inventory-valuation": `
		SELECT sku, name, quantity_on_hand, unit_price,
		       quantity_on_hand * unit_price AS value
		FROM products ORDER BY sku`,
	"trial-balance": `
		SELECT a.code, a.name, a.kind,
		       COALESCE(SUM(j.debit), 0) AS debits,
		       COALESCE(SUM(j.credit), 0) AS credits
		FROM accounts a LEFT JOIN journal_entries j ON j.account_id = a.id
		GROUP BY a.id ORDER BY a.code`,
	"customer-balances": `
		SELECT name, email, balance FROM customers
		WHERE balance != 0 ORDER BY balance DESC`,
}

// ReportNames lists the available canned reports.
func (s *ReportService) ReportNames() []string {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	return names
}

// Run executes a canned report against the company database in tc.
func (s *ReportService) Run(ctx context.Context, tc *tenant.Context, name string) ([]map[string]any, error) {
	sql, exists := reports[name]
	if !exists {
		return nil, fmt.Errorf("unknown report: %s", name)
	}

	marker := s.perfTracker.StartOperation("service_report_"+name, tc.TenantCode)
	defer marker.Complete()

	rows, err := query.Select(ctx, tc.Conn, sql)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	marker.SetSuccess(true)
	marker.AddMetadata("rows", len(rows))
	return rows, nil
}

// Query runs an ad-hoc parameterized SELECT against the company database.
func (s *ReportService) Query(ctx context.Context, tc *tenant.Context, sql string, args []any) ([]map[string]any, error) {
	marker := s.perfTracker.StartOperation("service_adhoc_query", tc.TenantCode)
	defer marker.Complete()

	rows, err := query.Select(ctx, tc.Conn, sql, args...)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	marker.SetSuccess(true)
	return rows, nil
}

// Exec runs an ad-hoc parameterized write against the company database.
func (s *ReportService) Exec(ctx context.Context, tc *tenant.Context, sql string, args []any) (*query.Result, error) {
	marker := s.perfTracker.StartOperation("service_adhoc_exec", tc.TenantCode)
	defer marker.Complete()

	res, err := query.Exec(ctx, tc.Conn, sql, args...)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	marker.SetSuccess(true)
	return res, nil
}
