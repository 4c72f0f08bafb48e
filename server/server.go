// Package server provides HTTP server management and lifecycle handling for the symptoms API.
// It includes server setup, middleware configuration, route management, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/symptoms-api/config"
	"github.com/giygas/symptoms-api/interfaces"
	"github.com/giygas/symptoms-api/logging"
	"github.com/giygas/symptoms-api/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// rateLimiterCleanupInterval is how often idle rate limiter buckets are dropped
const rateLimiterCleanupInterval = 30 * time.Minute

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	config      *config.Config
	rateLimiter *RateLimiter
	startedAt   time.Time
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15*time.Second + cfg.GeneratorTimeout,
			IdleTimeout:  60 * time.Second,
		},
		router:      router,
		handler:     handler,
		config:      cfg,
		rateLimiter: NewRateLimiter(),
		startedAt:   time.Now(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.RequireProxy {
		// Before RealIPMiddleware so the original RemoteAddr is checked
		s.router.Use(BlockDirectAccessMiddleware)
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Component("http")))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(metrics.Metrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handler.Home)
	s.router.Post("/query", s.handler.Query)
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/match", s.handler.MatchV1)
		r.Get("/conditions", s.handler.ServeConditionsV1)
		r.Get("/conditions/{name}", s.handler.FindConditionV1)
		r.Get("/symptoms/{symptom}", s.handler.FindBySymptomV1)
	})
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.rateLimiter.StartCleanup(rateLimiterCleanupInterval)

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...", "uptime", formatUptimeHuman(time.Since(s.startedAt)))
	s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
