package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/cinescout/internal/api/handlers"
	"github.com/amaumene/cinescout/internal/api/middleware"
	"github.com/amaumene/cinescout/internal/config"
	"github.com/amaumene/cinescout/internal/controllers"
	"github.com/amaumene/cinescout/internal/services/trending"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// pinger is implemented by stores with a remote backend
type pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	store    trending.Store
	sessions *controllers.SessionManager
	logger   *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, store trending.Store, sessions *controllers.SessionManager, gatherer prometheus.Gatherer, logger *logrus.Logger) *Server {
	s := &Server{
		store:    store,
		sessions: sessions,
		logger:   logger,
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logging(logger))
	router.Use(chimw.Recoverer)
	s.setupRoutes(router, cfg, gatherer)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(r chi.Router, cfg *config.Config, gatherer prometheus.Gatherer) {
	checks := map[string]handlers.HealthCheck{}
	if p, ok := s.store.(pinger); ok {
		checks["store"] = p.Ping
	}
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(checks, s.logger))
	r.Method(http.MethodGet, "/status", handlers.NewStatusHandler(s.store, s.sessions, cfg.StoreDriver, s.logger))

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	sessionHandler := handlers.NewSessionHandler(s.sessions, s.logger)
	trendingHandler := handlers.NewTrendingHandler(s.store, cfg.TrendingLimit, s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/trending", trendingHandler)

		r.Post("/sessions", sessionHandler.Create)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)
			r.Put("/query", sessionHandler.SetQuery)
		})
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
