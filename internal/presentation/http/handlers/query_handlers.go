package handlers

import (
	"net/http"
	"strings"

	"github.com/LedgerLine/ledgerline-go/internal/application/services"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// QueryHandlers contains the raw-query and report HTTP handlers
type QueryHandlers struct {
	reports *services.ReportService
	logger  *logging.ChanneledLogger
}

// NewQueryHandlers creates query handlers with injected dependencies
func NewQueryHandlers(reports *services.ReportService, logger *logging.ChanneledLogger) *QueryHandlers {
	return &QueryHandlers{reports: reports, logger: logger}
}

// QueryRequest is the body for ad-hoc SQL endpoints.
type QueryRequest struct {
	SQL  string `json:"sql" binding:"required"`
	Args []any  `json:"args"`
}

// PostQuery handles POST /api/v1/query - parameterized SELECT
func (h *QueryHandlers) PostQuery(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sql field is required"})
		return
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(req.SQL)), "SELECT") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only SELECT statements are accepted here"})
		return
	}

	rows, err := h.reports.Query(c.Request.Context(), tenantCtx, req.SQL, req.Args)
	if err != nil {
		h.logger.Database().Warn("Ad-hoc query failed", "company", tenantCtx.TenantCode, "error", err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company": tenantCtx.TenantCode,
		"rows":    rows,
		"count":   len(rows),
	})
}

// PostExec handles POST /api/v1/exec - parameterized write statement
func (h *QueryHandlers) PostExec(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sql field is required"})
		return
	}

	result, err := h.reports.Exec(c.Request.Context(), tenantCtx, req.SQL, req.Args)
	if err != nil {
		h.logger.Database().Warn("Ad-hoc exec failed", "company", tenantCtx.TenantCode, "error", err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company": tenantCtx.TenantCode,
		"result":  result,
	})
}

// GetReports handles GET /api/v1/reports - list canned reports
func (h *QueryHandlers) GetReports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": h.reports.ReportNames()})
}

// GetReport handles GET /api/v1/reports/:name - run a canned report
func (h *QueryHandlers) GetReport(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	name := c.Param("name")
	rows, err := h.reports.Run(c.Request.Context(), tenantCtx, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"company": tenantCtx.TenantCode,
		"report":  name,
		"rows":    rows,
		"count":   len(rows),
	})
}
