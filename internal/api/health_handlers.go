package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/logger"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 503 when the game store cannot be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.DB.PingContext(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("readiness check failed - database: %v", err)
			handleError(w, r, errors.NewDataSourceError(err))
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
