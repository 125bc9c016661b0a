// Package services provides the application services for company
// lifecycle, status reporting, and raw query access.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/email"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/security"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/LedgerLine/ledgerline-go/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

var codePattern = regexp.MustCompile(`^[a-z0-9-]{3,20}$`)

// ProvisioningService orchestrates company lifecycle operations.
type ProvisioningService struct {
	manager      *tenant.Manager
	emailService email.Service
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
	baseURL      string
}

// NewProvisioningService creates a new ProvisioningService. The email
// service may be nil when no provider is configured.
func NewProvisioningService(
	manager *tenant.Manager,
	emailService email.Service,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	baseURL string,
) *ProvisioningService {
	return &ProvisioningService{
		manager:      manager,
		emailService: emailService,
		logger:       logger,
		perfTracker:  perfTracker,
		baseURL:      baseURL,
	}
}

// ProvisionRequest defines the input for creating a new company.
type ProvisionRequest struct {
	Code          string `json:"code"`
	DisplayName   string `json:"displayName"`
	AdminUsername string `json:"adminUsername"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
	LibsqlURL     string `json:"libsqlUrl,omitempty"`
	LibsqlToken   string `json:"libsqlToken,omitempty"`
}

// CapacityResult defines the output for the capacity check.
type CapacityResult struct {
	Available        bool `json:"available"`
	CurrentCompanies int  `json:"currentCompanies"`
	MaxCompanies     int  `json:"maxCompanies"`
	AvailableSlots   int  `json:"availableSlots"`
}

// Provision registers a new inactive company, creates its admin identity,
// and sends the activation email. The company database is not created
// until activation.
func (s *ProvisioningService) Provision(ctx context.Context, req ProvisionRequest) error {
	marker := s.perfTracker.StartOperation("service_provision_company", req.Code)
	defer marker.Complete()

	if err := s.validate(ctx, req); err != nil {
		marker.SetError(err)
		return err
	}

	activationToken := security.GenerateSecureToken(32)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		marker.SetError(err)
		s.logger.System().Error("Failed to hash admin password during provisioning", "error", err.Error(), "code", req.Code)
		return fmt.Errorf("password hashing failed")
	}

	registry := s.manager.Registry()

	cfg, err := tenant.LoadConfigIn(s.manager.DataRoot(), req.Code)
	if err != nil {
		marker.SetError(err)
		return err
	}

	newTenant := &tenancy.Tenant{
		Code:        req.Code,
		DisplayName: req.DisplayName,
		IsActive:    false,
	}
	if req.LibsqlURL != "" && req.LibsqlToken != "" {
		newTenant.DatabaseType = "libsql"
		// The auth token rides in the URL, so the registry row holds it
		// encrypted with the company's own key.
		encrypted, encErr := security.Encrypt(req.LibsqlURL+"?authToken="+req.LibsqlToken, cfg.AESKey)
		if encErr != nil {
			marker.SetError(encErr)
			return fmt.Errorf("failed to protect database credentials: %w", encErr)
		}
		newTenant.DatabaseURL = encrypted
	}
	if err := registry.CreateTenant(ctx, newTenant); err != nil {
		marker.SetError(err)
		return err
	}

	if err := registry.CreateIdentity(ctx, req.AdminUsername, req.AdminEmail, string(hashedPassword), newTenant.ID); err != nil {
		marker.SetError(err)
		return err
	}

	cfg.ActivationToken = activationToken
	if newTenant.DatabaseType == "libsql" {
		cfg.DatabaseType = "libsql"
		cfg.LibsqlURL = req.LibsqlURL
		cfg.LibsqlToken = req.LibsqlToken
	}
	if err := tenant.SaveConfigIn(s.manager.DataRoot(), cfg); err != nil {
		marker.SetError(err)
		return err
	}

	if s.emailService != nil {
		activationURL := fmt.Sprintf("%s/api/v1/companies/activate?token=%s", s.baseURL, activationToken)
		if err := s.emailService.SendCompanyActivationEmail(req.AdminEmail, req.DisplayName, req.Code, activationURL); err != nil {
			// Provisioning stands; the operator can resend the link.
			s.logger.System().Error("Failed to send activation email", "error", err.Error(), "code", req.Code)
		}
	}

	marker.SetSuccess(true)
	s.logger.Tenant().Info("Company provisioned", "code", req.Code)
	s.manager.PublishEvent("company.provisioned", map[string]any{"code": req.Code})
	return nil
}

// Activate finalizes company setup: it creates the company database from
// the shared template and flips the company active.
func (s *ProvisioningService) Activate(ctx context.Context, token string) (string, error) {
	marker := s.perfTracker.StartOperation("service_activate_company", "unknown")
	defer marker.Complete()

	code, err := s.findByActivationToken(ctx, token)
	if err != nil {
		marker.SetError(err)
		return "", err
	}
	marker.TenantID = code

	if err := s.manager.RepairTenant(code); err != nil {
		marker.SetError(err)
		return "", fmt.Errorf("failed to create company database: %w", err)
	}

	if err := s.manager.Registry().SetActive(ctx, code, true); err != nil {
		marker.SetError(err)
		return "", err
	}

	cfg, err := tenant.LoadConfigIn(s.manager.DataRoot(), code)
	if err == nil {
		cfg.ActivationToken = ""
		if err := tenant.SaveConfigIn(s.manager.DataRoot(), cfg); err != nil {
			s.logger.Tenant().Warn("Failed to clear activation token", "error", err.Error(), "code", code)
		}
	}

	marker.SetSuccess(true)
	s.logger.Tenant().Info("Company activated", "code", code)
	s.manager.PublishEvent("company.activated", map[string]any{"code": code})
	return code, nil
}

// Deactivate flips a company inactive and clears any session bindings the
// caller supplies a hook for.
func (s *ProvisioningService) Deactivate(ctx context.Context, code string) error {
	if err := s.manager.Registry().SetActive(ctx, code, false); err != nil {
		return err
	}
	s.logger.Tenant().Info("Company deactivated", "code", code)
	s.manager.PublishEvent("company.deactivated", map[string]any{"code": code})
	return nil
}

// Capacity checks the system's capacity for new companies.
func (s *ProvisioningService) Capacity(ctx context.Context) (*CapacityResult, error) {
	current, err := s.manager.Registry().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not count companies: %w", err)
	}

	available := config.MaxTenants - current
	if available < 0 {
		available = 0
	}
	return &CapacityResult{
		Available:        available > 0,
		CurrentCompanies: current,
		MaxCompanies:     config.MaxTenants,
		AvailableSlots:   available,
	}, nil
}

func (s *ProvisioningService) validate(ctx context.Context, req ProvisionRequest) error {
	if !codePattern.MatchString(req.Code) {
		return fmt.Errorf("invalid company code: must be 3-20 lowercase alphanumeric characters or hyphens")
	}
	if len(req.AdminPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if req.AdminUsername == "" || req.AdminEmail == "" {
		return fmt.Errorf("admin username and email are required")
	}

	capacity, err := s.Capacity(ctx)
	if err != nil {
		return err
	}
	if !capacity.Available {
		return fmt.Errorf("no capacity for new companies")
	}

	if _, err := s.manager.Registry().GetTenant(ctx, req.Code); err == nil {
		return fmt.Errorf("company code '%s' already exists", req.Code)
	} else if !errors.Is(err, tenant.ErrTenantNotFound) {
		return err
	}
	return nil
}

func (s *ProvisioningService) findByActivationToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("invalid or expired activation token")
	}

	tenants, err := s.manager.Registry().ListTenants(ctx)
	if err != nil {
		return "", err
	}

	for _, t := range tenants {
		if t.IsActive {
			continue
		}
		cfg, err := tenant.LoadConfigIn(s.manager.DataRoot(), t.Code)
		if err != nil {
			s.logger.System().Warn("Could not load config for reserved company during activation check", "code", t.Code)
			continue
		}
		if cfg.ActivationToken != "" && cfg.ActivationToken == token {
			return t.Code, nil
		}
	}
	return "", fmt.Errorf("invalid or expired activation token")
}
