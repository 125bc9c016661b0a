// Package cleanup provides the background maintenance worker
package cleanup

import (
	"context"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/sessions"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
)

// Worker periodically evicts idle sessions and prunes dead database
// handles from the binder pool. The two sweeps run on independent
// cadences: pool pings are cheap and frequent, session eviction is not.
type Worker struct {
	sessions        *sessions.Store
	binder          *tenant.Binder
	sessionInterval time.Duration
	poolInterval    time.Duration
	logger          *logging.ChanneledLogger
}

// NewWorker creates a maintenance worker with the given sweep intervals.
func NewWorker(store *sessions.Store, binder *tenant.Binder, sessionInterval, poolInterval time.Duration, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		sessions:        store,
		binder:          binder,
		sessionInterval: sessionInterval,
		poolInterval:    poolInterval,
		logger:          logger,
	}
}

// Start runs the sweep loops until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	sessionTicker := time.NewTicker(w.sessionInterval)
	poolTicker := time.NewTicker(w.poolInterval)
	defer sessionTicker.Stop()
	defer poolTicker.Stop()

	if w.logger != nil {
		w.logger.System().Info("Maintenance worker started",
			"sessionInterval", w.sessionInterval.String(),
			"poolInterval", w.poolInterval.String())
	}

	for {
		select {
		case <-ctx.Done():
			if w.logger != nil {
				w.logger.Shutdown().Info("Maintenance worker stopping")
			}
			return
		case <-sessionTicker.C:
			if evicted := w.sessions.EvictExpired(); evicted > 0 && w.logger != nil {
				w.logger.System().Info("Evicted expired sessions", "count", evicted)
			}
		case <-poolTicker.C:
			if pruned := w.binder.CleanupStale(); pruned > 0 && w.logger != nil {
				w.logger.System().Info("Pruned dead database handles", "count", pruned)
			}
		}
	}
}
