// Package server exposes the catalog and the matching engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/catalog"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/matching"
)

const (
	adminKeyHeader  = "X-Admin-Key"
	shutdownTimeout = 10 * time.Second
	summaryRunes    = 500
)

type Options struct {
	Catalog  catalog.Source
	Matcher  *matching.Matcher
	AdminKey string
	Logger   *zap.Logger
	// Now is used for date based filters and defaults. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	router   *chi.Mux
	catalog  catalog.Source
	matcher  *matching.Matcher
	adminKey string
	logger   *zap.Logger
	now      func() time.Time
}

func New(opts Options) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		catalog:  opts.Catalog,
		matcher:  opts.Matcher,
		adminKey: opts.AdminKey,
		logger:   logger.OrNop(opts.Logger),
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.matcher == nil {
		s.matcher = matching.NewMatcher(matching.Config{}, s.logger)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", adminKeyHeader},
	}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Post("/match", s.handleMatch)
		r.Post("/admin/jobs", s.handleCreateJob)
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr), zap.String(logger.FieldMode, string(s.matcher.Mode())))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
