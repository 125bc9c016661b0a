// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/LedgerLine/ledgerline-go/internal/application/container"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/LedgerLine/ledgerline-go/internal/presentation/http/handlers"
	"github.com/LedgerLine/ledgerline-go/internal/presentation/http/middleware"
	"github.com/LedgerLine/ledgerline-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.FilteredLogger(container.Logger))
	r.Use(middleware.CORSMiddleware())

	// The default company's config carries the secret identity tokens
	// are signed with.
	jwtSecret := ""
	if cfg, err := tenant.LoadConfig(config.DefaultCode); err == nil {
		jwtSecret = cfg.JWTSecret
	} else {
		container.Logger.System().Error("Could not load default company config", "error", err.Error())
	}

	// Initialize handlers
	dbHandlers := handlers.NewDBHandlers(container.StatusService, container.TenantManager, container.Logger, container.PerfTracker)
	companyHandlers := handlers.NewCompanyHandlers(container.ProvisioningService, container.Sessions, container.Logger)
	queryHandlers := handlers.NewQueryHandlers(container.ReportService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.TenantManager.Registry(), container.Sessions, jwtSecret, container.Logger)
	sysopHandlers := handlers.NewSysOpHandlers(container.TenantManager, container.Sessions, container.Broadcaster, container.PerfTracker, container.Logger)

	// Liveness probe, no tenant resolution
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Operator endpoints, no tenant resolution
	sysopAPI := r.Group("/api/sysop")
	{
		sysopAPI.GET("/pool", sysopHandlers.GetPool)
		sysopAPI.GET("/perf", sysopHandlers.GetPerf)
		sysopAPI.GET("/events", sysopHandlers.GetEvents)
	}

	// Public, non-tenant-specific routes for company lifecycle.
	companyAPI := r.Group("/api/v1/companies")
	{
		companyAPI.POST("/provision", companyHandlers.PostProvision)
		companyAPI.GET("/activate", companyHandlers.GetActivate)
		companyAPI.GET("/capacity", companyHandlers.GetCapacity)
		companyAPI.POST("/:code/deactivate", companyHandlers.PostDeactivate)
	}

	// Admin database surface; registry-wide, no tenant resolution.
	r.GET("/api/v1/db/status", dbHandlers.GetDatabaseStatus)
	r.GET("/api/v1/db/status/:code", dbHandlers.GetCompanyDatabaseStatus)
	r.POST("/api/v1/db/repair/:code", dbHandlers.PostDatabaseRepair)

	// Tenant-scoped routes: session, identity, then company resolution.
	api := r.Group("/api/v1")
	api.Use(middleware.SessionMiddleware(container.Sessions, jwtSecret, container.Logger))
	api.Use(middleware.TenantMiddleware(container.TenantManager, container.PerfTracker))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
		}

		api.GET("/db/health", dbHandlers.GetRequestDatabaseHealth)

		api.POST("/query", queryHandlers.PostQuery)
		api.POST("/exec", queryHandlers.PostExec)
		api.GET("/reports", queryHandlers.GetReports)
		api.GET("/reports/:name", queryHandlers.GetReport)
	}

	return r
}
