// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/application/services"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/LedgerLine/ledgerline-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// DatabaseHandlers contains all database-related HTTP handlers
type DatabaseHandlers struct {
	statusService *services.StatusService
	manager       *tenant.Manager
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewDBHandlers creates database handlers with injected dependencies
func NewDBHandlers(statusService *services.StatusService, manager *tenant.Manager, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DatabaseHandlers {
	return &DatabaseHandlers{
		statusService: statusService,
		manager:       manager,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// GetDatabaseStatus handles GET /api/v1/db/status - health of every company database
func (h *DatabaseHandlers) GetDatabaseStatus(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_database_status_request", "system")
	defer marker.Complete()

	statuses, err := h.statusService.Status(c.Request.Context())
	if err != nil {
		marker.SetError(err)
		h.logger.Database().Error("Database status check failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status check failed"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Database().Info("Database status check completed", "companies", len(statuses), "duration", time.Since(start).String())
	c.JSON(http.StatusOK, gin.H{
		"companies":    statuses,
		"checkedAt":    time.Now().UTC(),
		"responseTime": time.Since(start).String(),
	})
}

// GetCompanyDatabaseStatus handles GET /api/v1/db/status/:code
func (h *DatabaseHandlers) GetCompanyDatabaseStatus(c *gin.Context) {
	code := c.Param("code")
	marker := h.perfTracker.StartOperation("get_company_status_request", code)
	defer marker.Complete()

	status, err := h.statusService.StatusFor(c.Request.Context(), code)
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, status)
}

// GetRequestDatabaseHealth handles GET /api/v1/db/health - the calling
// tenant's own binding and outcome
func (h *DatabaseHandlers) GetRequestDatabaseHealth(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	stats := tenantCtx.Conn.Stats()
	c.JSON(http.StatusOK, gin.H{
		"company":  tenantCtx.TenantCode,
		"location": tenantCtx.Location,
		"outcome":  tenantCtx.Outcome,
		"connections": gin.H{
			"open":  stats.OpenConnections,
			"inUse": stats.InUse,
			"idle":  stats.Idle,
		},
	})
}

// PostDatabaseRepair handles POST /api/v1/db/repair/:code - forced repair
func (h *DatabaseHandlers) PostDatabaseRepair(c *gin.Context) {
	code := c.Param("code")
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_database_repair_request", code)
	defer marker.Complete()

	if _, err := h.manager.Registry().GetTenant(c.Request.Context(), code); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	if err := h.manager.RepairTenant(code); err != nil {
		marker.SetError(err)
		h.logger.Repair().Error("Forced repair failed", "company", code, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "repair failed"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Repair().Info("Forced repair completed", "company", code, "duration", time.Since(start).String())
	c.JSON(http.StatusOK, gin.H{
		"company":  code,
		"repaired": true,
		"verdict":  h.manager.HealthFor(code),
		"duration": time.Since(start).String(),
	})
}
