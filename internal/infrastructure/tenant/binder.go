package tenant

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Binder owns every live database handle, keyed by location. There is no
// process-wide active connection: Bind hands each request its own handle
// for the resolved location, so two concurrent requests for different
// tenants can never observe each other's target.
type Binder struct {
	mu     sync.RWMutex
	pools  map[string]*sql.DB
	opens  map[string]int // connection open cycles per location
	logger *logging.ChanneledLogger
}

// NewBinder creates an empty connection binder.
func NewBinder(logger *logging.ChanneledLogger) *Binder {
	return &Binder{
		pools:  make(map[string]*sql.DB),
		opens:  make(map[string]int),
		logger: logger,
	}
}

// Bind returns the handle for a database location, opening it on first
// use. Binding an already-bound location is a no-op that returns the
// existing handle without a close/reopen cycle. An open or ping failure is
// fatal for the caller: no handle is returned against an ambiguous target.
func (b *Binder) Bind(location string) (*sql.DB, error) {
	b.mu.RLock()
	if db, exists := b.pools[location]; exists {
		b.mu.RUnlock()
		return db, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	// Re-check under the write lock; another request may have won the race.
	if db, exists := b.pools[location]; exists {
		return db, nil
	}

	driver := "sqlite3"
	if strings.HasPrefix(location, "libsql://") || strings.HasPrefix(location, "wss://") {
		driver = "libsql"
	}

	db, err := sql.Open(driver, location)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", location, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed for %s: %w", location, err)
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(config.DBConnMaxIdleMinutes) * time.Minute)

	b.pools[location] = db
	b.opens[location]++

	if b.logger != nil {
		b.logger.Database().Info("Database bound", "location", location, "driver", driver)
	}
	return db, nil
}

// Unbind closes and removes the handle for a location, forcing the next
// Bind to reopen. Used after repair replaces the file underneath a handle.
func (b *Binder) Unbind(location string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if db, exists := b.pools[location]; exists {
		db.Close()
		delete(b.pools, location)
	}
}

// OpenCount reports how many open cycles a location has gone through.
func (b *Binder) OpenCount(location string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.opens[location]
}

// CleanupStale closes handles that no longer answer a ping and returns how
// many were removed.
func (b *Binder) CleanupStale() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var stale []string
	for location, db := range b.pools {
		if err := db.Ping(); err != nil {
			db.Close()
			stale = append(stale, location)
		}
	}
	for _, location := range stale {
		delete(b.pools, location)
		if b.logger != nil {
			b.logger.Database().Warn("Removed dead database handle", "location", location)
		}
	}
	return len(stale)
}

// PoolInfo returns per-location connection statistics for the ops surface.
func (b *Binder) PoolInfo() map[string]map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	info := make(map[string]map[string]any, len(b.pools))
	for location, db := range b.pools {
		stats := db.Stats()
		info[location] = map[string]any{
			"healthy":      db.Ping() == nil,
			"maxOpen":      stats.MaxOpenConnections,
			"open":         stats.OpenConnections,
			"inUse":        stats.InUse,
			"idle":         stats.Idle,
			"waitCount":    stats.WaitCount,
			"waitDuration": stats.WaitDuration.String(),
			"openCycles":   b.opens[location],
		}
	}
	return info
}

// Close closes every pooled handle.
func (b *Binder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for location, db := range b.pools {
		db.Close()
		delete(b.pools, location)
	}
	return nil
}
