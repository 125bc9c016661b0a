// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/application/container"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/cleanup"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/caching/sessions"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/database"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/performance"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/security"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/tenant"
	"github.com/LedgerLine/ledgerline-go/internal/presentation/http/server"
	"github.com/LedgerLine/ledgerline-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete server startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
  _              _                 _     _
 | |    ___  __| | __ _  ___ _ __| |   (_)_ __   ___
 | |   / _ \/ _` + "`" + ` |/ _` + "`" + ` |/ _ \ '__| |   | | '_ \ / _ \
 | |__|  __/ (_| | (_| |  __/ |  | |___| | | | |  __/
 |_____\___|\__,_|\__, |\___|_|  |_____|_|_| |_|\___|
                  |___/
` + "\033[0m")

	// Step 1: Ensure the main database exists. It is the tenant registry,
	// the repair template, and the degraded-mode fallback in one file.
	log.Println("Preparing main database...")
	adminPassword := config.AdminPassword
	if adminPassword == "" {
		adminPassword = security.GenerateSecureToken(12)
	}
	created, err := database.EnsureMain(config.MainDatabase, config.DefaultCode, config.AdminUsername, adminPassword)
	if err != nil {
		return fmt.Errorf("failed to prepare main database: %w", err)
	}
	if created {
		log.Printf("Created main database at %s", config.MainDatabase)
		if config.AdminPassword == "" {
			log.Printf("Generated admin password for %q: %s", config.AdminUsername, adminPassword)
		}
	}

	// Step 2: Initialize channeled logging
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Channeled logging initialized")

	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())

	// Step 3: Wire the tenant subsystem
	logger.Startup().Info("Initializing tenant subsystem...")
	registry, err := tenant.NewRegistry(config.MainDatabase, logger)
	if err != nil {
		return fmt.Errorf("failed to open tenant registry: %w", err)
	}

	checker := tenant.NewChecker(logger)
	repairer := tenant.NewRepairer(config.MainDatabase, logger)
	binder := tenant.NewBinder(logger)
	resolver := tenant.NewResolver(registry, config.DataRoot, config.DefaultCode, config.MainDatabase, logger)
	tenantManager := tenant.NewManager(registry, resolver, checker, repairer, binder, config.MainDatabase, config.DataRoot, logger, perfTracker)

	// Step 4: Pre-flight every registered company database
	logger.Startup().Info("Running company database pre-flight...")
	if err := tenantManager.EnsureReady(ctx); err != nil {
		return fmt.Errorf("company database pre-flight failed: %w", err)
	}

	// Step 5: Session store
	sessionStore := sessions.NewStore(config.SessionTTL)

	// Step 6: Dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(tenantManager, sessionStore, logger, perfTracker, config.BaseURL)

	// Step 7: Background workers
	go appContainer.Broadcaster.Run(ctx)
	if config.SessionCleanupEnabled {
		worker := cleanup.NewWorker(sessionStore, binder, config.CleanupInterval, config.DBPoolCleanupInterval, logger)
		go worker.Start(ctx)
	}

	// Step 8: HTTP server
	httpServer := server.New(config.Port, appContainer)
	logger.Startup().Info("HTTP server initialized", "port", config.Port)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Startup complete",
		"totalDuration", time.Since(start).String(),
		"dataRoot", config.DataRoot,
		"port", config.Port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}
	if err := binder.Close(); err != nil {
		logger.Shutdown().Error("Error closing database handles", "error", err.Error())
	}
	if err := registry.Close(); err != nil {
		logger.Shutdown().Error("Error closing registry", "error", err.Error())
	}

	logger.Shutdown().Info("Shutdown complete",
		"totalUptime", time.Since(start).String(),
		"shutdownDuration", time.Since(shutdownStart).String())
	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
