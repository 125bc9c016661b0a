// Package server provides HTTP server initialization and management.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/LedgerLine/ledgerline-go/internal/application/container"
	"github.com/LedgerLine/ledgerline-go/internal/presentation/http/routes"
	"github.com/LedgerLine/ledgerline-go/pkg/config"
)

// Server wraps the HTTP server around the LedgerLine router. Timeouts
// come from config; the handler chain is built once at construction.
type Server struct {
	httpServer *http.Server
	container  *container.Container
}

// New creates an HTTP server serving the full route tree.
func New(port string, container *container.Container) *Server {
	router := routes.SetupRoutes(container)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		container:  container,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// stops and returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.container.Logger.System().Info("HTTP server listening", "address", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, draining in-flight
// requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.container.Logger.Shutdown().Info("Draining HTTP server")
	return s.httpServer.Shutdown(ctx)
}
