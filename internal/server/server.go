// Package server exposes the vault over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitalvault/vitalvault/internal/vault"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *vault.DB
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *vault.DB, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))

	s.router.Get("/api/v1/healthz", s.handleHealthz)

	// Vault endpoints (API key required)
	s.router.Route("/api/v1/vault", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/store", s.handleStore)
		r.Get("/list", s.handleList)
		r.Get("/retrieve", s.handleRetrieve)
	})
}
