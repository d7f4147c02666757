// Package server exposes the engine's HTTP surface: the cache-only
// research read endpoint, the admin endpoints and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/marketbrain/research-engine/internal/cache"
	"github.com/marketbrain/research-engine/internal/metrics"
	"github.com/marketbrain/research-engine/internal/scheduler"
	"github.com/marketbrain/research-engine/internal/sweeper"
	"github.com/marketbrain/research-engine/internal/tiers"
	"github.com/marketbrain/research-engine/internal/universe"
)

// Config holds server configuration
type Config struct {
	Port      int
	Log       zerolog.Logger
	Cache     cache.Client
	Sweeper   *sweeper.Sweeper
	Scheduler *scheduler.Scheduler
	Tiers     *tiers.Manager
	Universe  *universe.Loader
	Metrics   *metrics.Metrics
	ResultTTL time.Duration
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cache     cache.Client
	sweeper   *sweeper.Sweeper
	scheduler *scheduler.Scheduler
	tiers     *tiers.Manager
	universe  *universe.Loader
	metrics   *metrics.Metrics
	resultTTL time.Duration
	inflight  sync.Map // symbol -> struct{}{}; dedups background sweeps
	now       func() time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cache:     cfg.Cache,
		sweeper:   cfg.Sweeper,
		scheduler: cfg.Scheduler,
		tiers:     cfg.Tiers,
		universe:  cfg.Universe,
		metrics:   cfg.Metrics,
		resultTTL: cfg.ResultTTL,
		now:       time.Now,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Get("/research", s.handleResearch)
	s.router.Route("/admin", func(r chi.Router) {
		r.Post("/sweep", s.handleAdminSweep)
		r.Get("/scheduler", s.handleAdminScheduler)
		r.Get("/tiers", s.handleAdminTiers)
	})

	// Aliases kept for clients that expect an /api prefix
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/research", s.handleResearch)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", s.handleAdminSweep)
			r.Get("/scheduler", s.handleAdminScheduler)
			r.Get("/tiers", s.handleAdminTiers)
		})
	})
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree (used by tests)
func (s *Server) Router() http.Handler {
	return s.router
}
