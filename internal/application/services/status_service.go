package services

import (
	"context"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
)

// StatusService reports database health for the admin surface.
type StatusService struct {
	manager *tenant.Manager
}

// NewStatusService creates a new StatusService.
func NewStatusService(manager *tenant.Manager) *StatusService {
	return &StatusService{manager: manager}
}

// CompanyStatus pairs a registry record with its live health verdict.
type CompanyStatus struct {
	Company tenancy.Tenant  `json:"company"`
	Verdict tenancy.Verdict `json:"verdict"`
}

// Status health-checks every registered company database.
func (s *StatusService) Status(ctx context.Context) ([]CompanyStatus, error) {
	tenants, err := s.manager.Registry().ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]CompanyStatus, 0, len(tenants))
	for _, t := range tenants {
		status := CompanyStatus{Company: t}
		if t.DatabaseType != "libsql" {
			status.Verdict = s.manager.HealthFor(t.Code)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// StatusFor health-checks a single company database.
func (s *StatusService) StatusFor(ctx context.Context, code string) (*CompanyStatus, error) {
	t, err := s.manager.Registry().GetTenant(ctx, code)
	if err != nil {
		return nil, err
	}

	status := &CompanyStatus{Company: *t}
	if t.DatabaseType != "libsql" {
		status.Verdict = s.manager.HealthFor(t.Code)
	}
	return status, nil
}
