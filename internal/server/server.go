// Package server exposes an Engine over a local HTTP API, the bridge a
// renderer process uses to read the current graph and drive the filters.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanonone/lawgraph/pkg/engine"
)

// Server holds the HTTP interface and the Engine it serves.
type Server struct {
	Engine *engine.Engine

	httpServer *http.Server
	handler    http.Handler
}

// NewServer wraps an existing Engine. The Engine does not need to be loaded
// yet; a renderer can trigger the first load with POST /reload.
func NewServer(eng *engine.Engine, httpAddr string) *Server {
	s := &Server{Engine: eng}

	mux := http.NewServeMux()
	s.registerHTTPHandlers(mux)

	// Health and metrics bypass request logging but, like every route, get
	// a request id. Recovery -> RequestID -> rootMux -> Logging -> mux.
	rootMux := http.NewServeMux()
	rootMux.HandleFunc("GET /healthz", s.handleHealthz)
	rootMux.Handle("GET /metrics", promhttp.Handler())
	rootMux.Handle("/", s.LoggingMiddleware(mux))

	// Recovery must be outer-most to catch everything.
	var handler http.Handler = rootMux
	handler = s.RequestIDMiddleware(handler)
	handler = s.RecoveryMiddleware(handler)

	s.handler = handler
	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until it is shut down.
func (s *Server) Run() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server startup failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server. It does not touch the Engine.
func (s *Server) Shutdown() {
	slog.Info("Starting graceful shutdown of HTTP Server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}
