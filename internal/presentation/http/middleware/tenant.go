package middleware

import (
	"net/http"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/gin-gonic/gin"
)

// TenantMiddleware resolves the request's company and attaches a tenant
// context with a live database handle. Resolution never rejects a
// request; only a bind failure does.
func TenantMiddleware(manager *tenant.Manager, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		marker := perfTracker.StartOperation("middleware_tenant_resolution", "unknown")
		defer marker.Complete()

		marker.AddMetadata("path", c.Request.URL.Path)
		marker.AddMetadata("method", c.Request.Method)

		var cache tenant.BindingCache
		if session, ok := GetSession(c); ok {
			cache = session
		}
		identity := c.GetString("identity")

		tenantCtx, err := manager.ContextFor(c.Request.Context(), cache, identity)
		if err != nil {
			marker.SetError(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "company database unavailable"})
			c.Abort()
			return
		}

		marker.TenantID = tenantCtx.TenantCode
		marker.SetSuccess(true)
		marker.AddMetadata("duration", time.Since(start).String())

		c.Header("X-ERP-Tenant", tenantCtx.TenantCode)
		if tenantCtx.Degraded() {
			c.Header("X-ERP-Degraded", string(tenantCtx.Outcome.Reason))
		}
		if tenantCtx.Outcome.Reason == tenancy.ReasonRegistryError {
			// Served from the shared database only because the registry
			// was unreachable; keep intermediaries from caching it.
			c.Header("Cache-Control", "no-store")
		}

		c.Set("tenant", tenantCtx)
		c.Next()
	}
}

// GetTenantContext retrieves the tenant context from gin context.
func GetTenantContext(c *gin.Context) (*tenant.Context, bool) {
	v, exists := c.Get("tenant")
	if !exists {
		return nil, false
	}
	ctx, ok := v.(*tenant.Context)
	return ctx, ok
}
