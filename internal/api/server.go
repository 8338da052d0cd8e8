// Package api serves the clinical checks over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf"
)

// Options configures the HTTP API
type Options struct {
	// APIKey enables bearer authentication on every endpoint except /health
	APIKey string
	// MCP, when set, is mounted at /mcp
	MCP    http.Handler
	Logger *slog.Logger
}

// Server is the HTTP API server
type Server struct {
	router  chi.Router
	service *pdf.Service
	opts    Options
	log     *slog.Logger
}

// NewServer creates and configures the HTTP server
func NewServer(service *pdf.Service, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		service: service,
		opts:    opts,
		log:     log,
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

	r.Group(func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(AuthMiddleware(s.opts.APIKey))
		}

		r.Post("/api/analyze", s.handleAnalyze)
		r.Post("/api/check", s.handleCheck)

		if s.opts.MCP != nil {
			r.Handle("/mcp", s.opts.MCP)
		}
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
