// Package api serves proofreading reports over HTTP for previewing a book
// while it is being written.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dgallion1/bookkit/internal/proofread"
	"github.com/dgallion1/bookkit/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP preview server for bookkit.
type Server struct {
	router  chi.Router
	runner  *proofread.Runner
	opts    proofread.Options
	token   string
	log     *slog.Logger
	metrics *metrics

	// runMu serializes proofreading runs; a Runner is not reentrant.
	runMu sync.Mutex
}

// NewServer creates and configures the HTTP server. An empty token disables
// authentication on the report endpoints.
func NewServer(runner *proofread.Runner, opts proofread.Options, token string, log *slog.Logger) *Server {
	s := &Server{
		runner:  runner,
		opts:    opts,
		token:   token,
		log:     log,
		metrics: newMetrics(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if s.token != "" {
			r.Use(AuthMiddleware(s.token, s.log))
		}
		r.Get("/api/report", s.handleReportJSON)
		r.Get("/report", s.handleReportHTML)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// proofread runs a fresh pass and records it in the metrics.
func (s *Server) proofread(ctx context.Context) (*report.Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res, err := s.runner.Run(ctx, s.opts)
	if err != nil {
		s.metrics.failures.Inc()
		return nil, err
	}
	s.metrics.observe(res)
	return report.Build(res), nil
}
