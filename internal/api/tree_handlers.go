package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/logger"
	"github.com/vytor/openingtree/internal/models"
)

type createTreeRequest struct {
	PlayerName string `json:"player_name"`
	Side       string `json:"side"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Opponent   string `json:"opponent"`
}

type createTreeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *Server) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createTreeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid JSON body: "+err.Error()))
		return
	}

	filter, err := models.ParseFilter(req.PlayerName, req.Side, req.StartDate, req.EndDate, req.Opponent)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !filter.HasPlayer() {
		log.Warn("tree requested without a player; every game will be skipped")
	}

	res, ok := s.reserveBuild(w, r)
	if !ok {
		return
	}

	h, err := s.Trees.Submit(r.Context(), filter)
	if err != nil {
		if res != nil {
			res.Cancel()
		}
		handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/trees/"+h.ID())
	writeJSON(w, r, http.StatusAccepted, createTreeResponse{ID: h.ID(), Status: string(h.Status())})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h, ok := s.Trees.Lookup(id)
	if !ok {
		handleError(w, r, errors.NewNotFoundError("build", id))
		return
	}
	writeJSON(w, r, http.StatusOK, newBuildView(h))
}

func (s *Server) handleCancelTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Trees.Cancel(id); err != nil {
		handleError(w, r, err)
		return
	}
	h, ok := s.Trees.Lookup(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusAccepted, newBuildView(h))
}

// handleTreeNode serves the node reached by ?path=e4,e5 (empty path is
// the root). ?games=true adds the games through the node.
func (s *Server) handleTreeNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := parsePath(r.URL.Query().Get("path"))

	withGames := false
	if raw := r.URL.Query().Get("games"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			handleError(w, r, errors.NewValidationError("games", "must be a boolean"))
			return
		}
		withGames = v
	}

	node, err := s.Trees.Navigate(id, path)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newNodeView(node, withGames))
}

func parsePath(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
}
