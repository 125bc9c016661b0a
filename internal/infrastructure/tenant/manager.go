package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
)

// Publisher pushes operational events to whoever is listening. A nil
// publisher is valid and silently drops events.
type Publisher interface {
	Publish(event string, payload map[string]any)
}

// Manager is the orchestration layer over resolve, check, repair and
// bind. Every request goes through ContextFor, which guarantees the
// returned handle points at a structurally sound database or, failing
// that, at the shared fallback.
type Manager struct {
	registry  *Registry
	resolver  *Resolver
	checker   *Checker
	repairer  *Repairer
	binder    *Binder
	mainPath  string
	dataRoot  string
	logger    *logging.ChanneledLogger
	perf      *performance.Tracker
	publisher Publisher
}

// NewManager wires the tenant subsystem together.
func NewManager(registry *Registry, resolver *Resolver, checker *Checker, repairer *Repairer, binder *Binder, mainPath, dataRoot string, logger *logging.ChanneledLogger, perf *performance.Tracker) *Manager {
	return &Manager{
		registry: registry,
		resolver: resolver,
		checker:  checker,
		repairer: repairer,
		binder:   binder,
		mainPath: mainPath,
		dataRoot: dataRoot,
		logger:   logger,
		perf:     perf,
	}
}

// SetPublisher attaches an operational event publisher.
func (m *Manager) SetPublisher(p Publisher) { m.publisher = p }

// ContextFor resolves the identity to a tenant, verifies and if needed
// repairs its database, and returns a request context with a live handle.
// The health check runs once per session: a binding the session has
// already validated is bound directly. The only error ContextFor returns
// is a bind failure, which no fallback can paper over.
func (m *Manager) ContextFor(ctx context.Context, cache BindingCache, identity string) (*Context, error) {
	var marker *performance.Marker
	if m.perf != nil {
		marker = m.perf.StartOperation("tenant_context", identity)
		defer marker.Complete()
	}

	binding := m.resolver.Resolve(ctx, cache, identity)
	outcome := tenancy.Outcome{State: tenancy.OutcomeOK, Reason: binding.Reason}
	if binding.Reason != tenancy.ReasonNone {
		outcome.State = tenancy.OutcomeDegraded
	}

	location := binding.DatabasePath
	firstResolve := !binding.Validated

	// Remote databases have no file to inspect or copy over; the bind
	// ping below is their health check.
	if binding.DatabaseType != "libsql" && !binding.Validated {
		if verdict := m.checker.Check(location); verdict.IsValid {
			binding.Validated = true
		} else if err := m.repair(binding, location); err == nil {
			outcome.Repaired = true
			binding.Validated = true
		} else {
			// Lossy repair failed too. Last resort: serve the shared
			// database rather than nothing. The binding stays
			// unvalidated so the next request re-checks and repairs
			// the tenant once its template is reachable again.
			if m.logger != nil {
				m.logger.Alert().Error("Repair failed, falling back to shared database",
					"tenant", binding.TenantCode, "location", location, "error", err.Error())
			}
			location = m.mainPath
			outcome.State = tenancy.OutcomeDegraded
			if outcome.Reason == tenancy.ReasonNone {
				outcome.Reason = tenancy.ReasonRepairFailed
			}
		}
	}

	db, err := m.binder.Bind(location)
	if err != nil {
		if marker != nil {
			marker.SetError(err)
		}
		m.publish("db.bind.failed", map[string]any{"tenant": binding.TenantCode, "location": location})
		return nil, fmt.Errorf("failed to bind tenant database for %s: %w", binding.TenantCode, err)
	}

	if outcome.State == tenancy.OutcomeDegraded && firstResolve {
		m.publish("tenant.degraded", map[string]any{
			"tenant": binding.TenantCode, "reason": string(outcome.Reason), "location": location})
	}

	cfg, cfgErr := LoadConfigIn(m.dataRoot, binding.TenantCode)
	if cfgErr != nil {
		if m.logger != nil {
			m.logger.Tenant().Warn("Tenant config unavailable", "tenant", binding.TenantCode, "error", cfgErr.Error())
		}
		cfg = nil
	}

	if marker != nil {
		marker.SetSuccess(true)
		marker.AddMetadata("tenant", binding.TenantCode)
		marker.AddMetadata("state", outcome.State)
	}

	return &Context{
		TenantCode: binding.TenantCode,
		TenantID:   binding.TenantID,
		Config:     cfg,
		Conn:       db,
		Location:   location,
		Binding:    binding,
		Outcome:    outcome,
	}, nil
}

func (m *Manager) repair(binding *tenancy.Binding, location string) error {
	if m.logger != nil {
		m.logger.Repair().Warn("Database failed health check, repairing",
			"tenant", binding.TenantCode, "location", location)
	}
	start := time.Now()

	if err := m.repairer.Repair(location); err != nil {
		return err
	}

	// The file under any existing handle was just swapped out.
	m.binder.Unbind(location)

	if m.logger != nil {
		m.logger.Repair().Info("Database repaired",
			"tenant", binding.TenantCode, "location", location, "duration", time.Since(start).String())
	}
	m.publish("db.repaired", map[string]any{"tenant": binding.TenantCode, "location": location})
	return nil
}

// HealthFor runs an on-demand health check for a tenant code.
func (m *Manager) HealthFor(code string) tenancy.Verdict {
	return m.checker.Check(DatabasePathIn(m.dataRoot, code))
}

// RepairTenant forces a repair of a tenant's database regardless of its
// current health. The caller loses whatever the old file held.
func (m *Manager) RepairTenant(code string) error {
	location := DatabasePathIn(m.dataRoot, code)
	if err := m.repairer.Repair(location); err != nil {
		return err
	}
	m.binder.Unbind(location)
	m.publish("db.repaired", map[string]any{"tenant": NormalizeCode(code), "location": location, "forced": true})
	return nil
}

// EnsureReady walks every registered tenant at startup, repairing broken
// databases before the first request arrives. Individual failures are
// logged and skipped; startup proceeds regardless.
func (m *Manager) EnsureReady(ctx context.Context) error {
	tenants, err := m.registry.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants for pre-flight: %w", err)
	}

	healthy, repaired, failed := 0, 0, 0
	for _, t := range tenants {
		if !t.IsActive || t.DatabaseType == "libsql" {
			continue
		}
		location := DatabasePathIn(m.dataRoot, t.Code)
		if m.checker.IsValid(location) {
			healthy++
			continue
		}
		if err := m.repairer.Repair(location); err != nil {
			failed++
			if m.logger != nil {
				m.logger.Startup().Error("Pre-flight repair failed", "tenant", t.Code, "error", err.Error())
			}
			continue
		}
		repaired++
	}

	if m.logger != nil {
		m.logger.Startup().Info("Tenant database pre-flight complete",
			"healthy", healthy, "repaired", repaired, "failed", failed)
	}
	return nil
}

func (m *Manager) publish(event string, payload map[string]any) {
	if m.publisher != nil {
		m.publisher.Publish(event, payload)
	}
}

// PublishEvent forwards an operational event to the attached publisher.
// Services above the tenant layer use it for lifecycle events.
func (m *Manager) PublishEvent(event string, payload map[string]any) {
	m.publish(event, payload)
}

// Binder exposes the connection binder for the ops surface.
func (m *Manager) Binder() *Binder { return m.binder }

// Registry exposes the tenant registry.
func (m *Manager) Registry() *Registry { return m.registry }

// Resolver exposes the tenant resolver.
func (m *Manager) Resolver() *Resolver { return m.resolver }

// MainPath returns the shared fallback database location.
func (m *Manager) MainPath() string { return m.mainPath }

// DataRoot returns the data directory everything lives under.
func (m *Manager) DataRoot() string { return m.dataRoot }
