// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/LedgerLine/ledgerline-go/internal/application/services"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/sessions"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/email"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/messaging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/LedgerLine/ledgerline-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services
	ProvisioningService *services.ProvisioningService
	ReportService       *services.ReportService
	StatusService       *services.StatusService

	// Infrastructure
	TenantManager *tenant.Manager
	Sessions      *sessions.Store
	Broadcaster   *messaging.Broadcaster
	EmailService  email.Service
	Logger        *logging.ChanneledLogger
	PerfTracker   *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(
	tenantManager *tenant.Manager,
	sessionStore *sessions.Store,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	baseURL string,
) *Container {
	emailService, err := email.NewService()
	if err != nil {
		// Provisioning still works without email; operators hand out
		// activation links manually.
		logger.System().Warn("Email service unavailable", "error", err.Error())
		emailService = nil
	}

	broadcaster := messaging.NewBroadcaster(func() any {
		return map[string]any{
			"pools":    tenantManager.Binder().PoolInfo(),
			"sessions": sessionStore.Len(),
			"uptime":   perfTracker.Uptime().String(),
		}
	}, logger)
	tenantManager.SetPublisher(broadcaster)

	return &Container{
		ProvisioningService: services.NewProvisioningService(tenantManager, emailService, logger, perfTracker, baseURL),
		ReportService:       services.NewReportService(perfTracker),
		StatusService:       services.NewStatusService(tenantManager),

		TenantManager: tenantManager,
		Sessions:      sessionStore,
		Broadcaster:   broadcaster,
		EmailService:  emailService,
		Logger:        logger,
		PerfTracker:   perfTracker,
	}
}

// DefaultCode returns the fallback company code.
func (c *Container) DefaultCode() string {
	return config.DefaultCode
}
