// Package server exposes the engine's read-only HTTP and WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/server/handler"
	"github.com/alanyoungcy/arbwatch/internal/server/middleware"
	"github.com/alanyoungcy/arbwatch/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Quotes        *handler.QuoteHandler
	Pools         *handler.PoolHandler
	Opportunities *handler.OpportunityHandler
}

// Server is the HTTP + WebSocket API server for the aggregation engine.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. It wires up the
// middleware chain (CORS, logging, auth) and attaches the WebSocket hub when
// one is provided.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Liveness probe, exempt from authentication.
	mux.HandleFunc("GET /healthz", handlers.Health.HealthCheck)

	// Quote book.
	mux.HandleFunc("GET /api/quotes", handlers.Quotes.ListSymbols)
	mux.HandleFunc("GET /api/quotes/{symbol}", handlers.Quotes.GetQuotes)

	// DEX pools.
	mux.HandleFunc("GET /api/pools", handlers.Pools.ListPools)

	// Opportunity history.
	mux.HandleFunc("GET /api/opportunities/recent", handlers.Opportunities.ListRecent)
	mux.HandleFunc("GET /api/stats", handlers.Opportunities.GetStats)
	mux.HandleFunc("GET /api/alerts", handlers.Opportunities.ListAlerts)

	// Live event stream.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/healthz")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		handler:    h,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Handler returns the fully assembled handler chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
