package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	s.builds = newBuildLimiter(s.BuildsPerMinute)

	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Post("/api/games/import", s.handleImport)
	r.Get("/api/players", s.handleSearchPlayers)

	r.Route("/api/trees", func(r chi.Router) {
		r.Post("/", s.handleCreateTree)
		r.Get("/{id}", s.handleGetTree)
		r.Delete("/{id}", s.handleCancelTree)
		r.Get("/{id}/node", s.handleTreeNode)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFound(r))
	})
	return r
}
