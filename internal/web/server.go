// Package web provides the HTTP server and JSON API for attendance
// report dispatch and activity log inspection.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medicampus/attendmail/internal/audit"
	"github.com/medicampus/attendmail/internal/config"
	"github.com/medicampus/attendmail/internal/dispatch"
	"github.com/medicampus/attendmail/internal/logging"
)

// Server is the HTTP server for the dispatch application.
type Server struct {
	engine   *dispatch.Engine
	activity *audit.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(engine *dispatch.Engine, activity *audit.Service, cfg *config.Config) *Server {
	s := &Server{
		engine:   engine,
		activity: activity,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Attendance upload (runs the full dispatch)
		r.Post("/attendance/upload", s.handleUpload)

		// Activity log
		r.Get("/activity", s.handleListActivity)
		r.Get("/activity/{id}", s.handleGetActivity)
		r.Get("/activity/{id}/file", s.handleActivityFile)
		r.Post("/activity/cleanup", s.handleCleanup)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	logging.FromContext(context.Background()).Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
