package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/security"
)

// BindingCache is what the resolver needs from a session: a slot that
// remembers the tenant binding for the life of the session.
type BindingCache interface {
	Binding() *tenancy.Binding
	SetBinding(*tenancy.Binding)
}

// Resolver maps an authenticated identity to its tenant binding, caching
// the answer on the session so the registry is consulted once per session.
// Resolution never fails: any miss or error falls through to the default
// tenant, tagged with a reason so the fallback stays observable.
type Resolver struct {
	registry    *Registry
	dataRoot    string
	defaultCode string
	defaultPath string
	logger      *logging.ChanneledLogger
}

// NewResolver creates a resolver backed by the given registry. The default
// path is the shared database every unresolvable request lands on.
func NewResolver(registry *Registry, dataRoot, defaultCode, defaultPath string, logger *logging.ChanneledLogger) *Resolver {
	return &Resolver{
		registry:    registry,
		dataRoot:    dataRoot,
		defaultCode: defaultCode,
		defaultPath: defaultPath,
		logger:      logger,
	}
}

// Resolve returns the tenant binding for an identity. A binding already
// cached on the session is returned as-is; otherwise the registry is
// consulted and the result cached before returning.
func (r *Resolver) Resolve(ctx context.Context, cache BindingCache, identity string) *tenancy.Binding {
	if cache != nil {
		if cached := cache.Binding(); cached != nil {
			return cached
		}
	}

	binding := r.lookup(ctx, identity)
	if cache != nil {
		cache.SetBinding(binding)
	}
	return binding
}

func (r *Resolver) lookup(ctx context.Context, identity string) *tenancy.Binding {
	if identity == "" {
		return r.defaultBinding(tenancy.ReasonNoIdentity)
	}

	profile, err := r.registry.FindProfileByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			if r.logger != nil {
				r.logger.Tenant().Warn("No tenant profile for identity, using default", "identity", identity)
			}
			return r.defaultBinding(tenancy.ReasonProfileNotFound)
		}
		if r.logger != nil {
			r.logger.Tenant().Error("Registry lookup failed, using default", "identity", identity, "error", err.Error())
		}
		return r.defaultBinding(tenancy.ReasonRegistryError)
	}

	if !profile.IsActive {
		if r.logger != nil {
			r.logger.Tenant().Warn("Tenant inactive, using default", "identity", identity, "tenant", profile.TenantCode)
		}
		return r.defaultBinding(tenancy.ReasonTenantInactive)
	}

	binding := &tenancy.Binding{
		TenantID:     profile.TenantID,
		TenantCode:   profile.TenantCode,
		DatabaseType: "sqlite3",
		DatabasePath: DatabasePathIn(r.dataRoot, profile.TenantCode),
		ResolvedAt:   time.Now().UTC(),
		Reason:       tenancy.ReasonNone,
	}

	tenant, err := r.registry.GetTenant(ctx, profile.TenantCode)
	if err == nil && tenant.DatabaseType == "libsql" && tenant.DatabaseURL != "" {
		binding.DatabaseType = "libsql"
		binding.DatabasePath = r.remoteLocation(profile.TenantCode, tenant.DatabaseURL)
	}

	if r.logger != nil {
		r.logger.Tenant().Info("Resolved tenant", "identity", identity, "tenant", binding.TenantCode)
	}
	return binding
}

// remoteLocation recovers a libsql connection URL from its registry row.
// The row is encrypted with the company's config key; rows written before
// encryption hold the URL in the clear.
func (r *Resolver) remoteLocation(code, stored string) string {
	cfg, err := LoadConfigIn(r.dataRoot, code)
	if err != nil {
		return stored
	}
	url, err := security.Decrypt(stored, cfg.AESKey)
	if err != nil {
		return stored
	}
	return url
}

func (r *Resolver) defaultBinding(reason tenancy.Reason) *tenancy.Binding {
	return &tenancy.Binding{
		TenantCode:   r.defaultCode,
		DatabaseType: "sqlite3",
		DatabasePath: r.defaultPath,
		ResolvedAt:   time.Now().UTC(),
		Reason:       reason,
	}
}

// DefaultCode returns the fallback tenant code.
func (r *Resolver) DefaultCode() string { return r.defaultCode }
