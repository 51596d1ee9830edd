package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/spektr-org/salaryscope/config"
	"github.com/spektr-org/salaryscope/metrics"
	"github.com/spektr-org/salaryscope/service"
)

// Server is the read-only JSON API over one Analyzer.
type Server struct {
	router   *mux.Router
	server   *http.Server
	analyzer *service.Analyzer
	metrics  *metrics.Registry
	limiter  *rate.Limiter
	log      zerolog.Logger
	cfg      config.ServerConfig
}

// NewServer wires routes and middleware. A nil registry gets a private one.
func NewServer(cfg config.ServerConfig, a *service.Analyzer, m *metrics.Registry, log zerolog.Logger) *Server {
	if m == nil {
		m = metrics.New()
	}
	s := &Server{
		router:   mux.NewRouter(),
		analyzer: a,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/domains", s.handleDomains).Methods(http.MethodGet)
	api.HandleFunc("/view", s.handleViewQuery).Methods(http.MethodGet)
	api.HandleFunc("/view", s.handleViewBody).Methods(http.MethodPost)
	api.HandleFunc("/charts", s.handleCharts).Methods(http.MethodGet)
	api.HandleFunc("/table", s.handleTable).Methods(http.MethodGet)

	// mux skips Use middleware for its fallback handlers.
	s.router.NotFoundHandler = s.withMiddleware(http.HandlerFunc(s.handleNotFound))
	s.router.MethodNotAllowedHandler = s.withMiddleware(http.HandlerFunc(s.handleMethodNotAllowed))
}

// withMiddleware applies the router-level chain to h.
func (s *Server) withMiddleware(h http.Handler) http.Handler {
	return s.requestIDMiddleware(s.requestLoggingMiddleware(s.rateLimitMiddleware(h)))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Addr }

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Addr).Int("records", s.analyzer.Dataset().Len()).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
