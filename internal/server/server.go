package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/database"
	"github.com/finpulse/finpulse/internal/modules/health"
	"github.com/finpulse/finpulse/internal/modules/trends"
	"github.com/finpulse/finpulse/internal/modules/uniteconomics"
	"github.com/finpulse/finpulse/internal/modules/variance"
	"github.com/finpulse/finpulse/internal/scheduler"
)

// Modules bundles the analytics handlers mounted under /api
type Modules struct {
	Variance      *variance.Handler
	Trends        *trends.Handler
	UnitEconomics *uniteconomics.Handler
	Health        *health.Handler
}

// Config holds server configuration
type Config struct {
	Port      int
	Log       zerolog.Logger
	DB        *database.DB
	Scheduler *scheduler.Scheduler
	Modules   Modules
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	db        *database.DB
	scheduler *scheduler.Scheduler
	modules   Modules
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		db:        cfg.DB,
		scheduler: cfg.Scheduler,
		modules:   cfg.Modules,
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
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Liveness probe
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Route("/variance", s.modules.Variance.Routes)
		r.Route("/trends", s.modules.Trends.Routes)
		r.Route("/unit-economics", s.modules.UnitEconomics.Routes)
		r.Route("/health-score", s.modules.Health.Routes)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
