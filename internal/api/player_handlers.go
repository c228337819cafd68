package api

import (
	"net/http"
	"strconv"

	"github.com/vytor/openingtree/internal/errors"
)

// handleSearchPlayers serves ?q=carl&limit=10.
func (s *Server) handleSearchPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handleError(w, r, errors.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}

	players, err := s.Players.Search(r.Context(), query.Get("q"), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, players)
}
