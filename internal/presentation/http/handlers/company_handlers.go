package handlers

import (
	"net/http"

	"github.com/LedgerLine/ledgerline-go/internal/application/services"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/sessions"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// CompanyHandlers contains the company lifecycle HTTP handlers
type CompanyHandlers struct {
	provisioning *services.ProvisioningService
	sessions     *sessions.Store
	logger       *logging.ChanneledLogger
}

// NewCompanyHandlers creates company handlers with injected dependencies
func NewCompanyHandlers(provisioning *services.ProvisioningService, sessionStore *sessions.Store, logger *logging.ChanneledLogger) *CompanyHandlers {
	return &CompanyHandlers{
		provisioning: provisioning,
		sessions:     sessionStore,
		logger:       logger,
	}
}

// PostProvision handles POST /api/v1/companies/provision
func (h *CompanyHandlers) PostProvision(c *gin.Context) {
	var req services.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.provisioning.Provision(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":   req.Code,
		"status": "reserved",
	})
}

// GetActivate handles GET /api/v1/companies/activate?token=...
func (h *CompanyHandlers) GetActivate(c *gin.Context) {
	token := c.Query("token")

	code, err := h.provisioning.Activate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":   code,
		"status": "active",
	})
}

// PostDeactivate handles POST /api/v1/companies/:code/deactivate
func (h *CompanyHandlers) PostDeactivate(c *gin.Context) {
	code := c.Param("code")

	if err := h.provisioning.Deactivate(c.Request.Context(), code); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	// Sessions bound to the company must re-resolve and land on default.
	cleared := h.sessions.ClearBindingsFor(code)

	c.JSON(http.StatusOK, gin.H{
		"code":            code,
		"status":          "inactive",
		"sessionsCleared": cleared,
	})
}

// GetCapacity handles GET /api/v1/companies/capacity
func (h *CompanyHandlers) GetCapacity(c *gin.Context) {
	capacity, err := h.provisioning.Capacity(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "capacity check failed"})
		return
	}
	c.JSON(http.StatusOK, capacity)
}
