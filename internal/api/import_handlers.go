package api

import (
	stderrors "errors"
	"net/http"

	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/logger"
	"github.com/vytor/openingtree/internal/pgn"
)

// maxImportBytes caps one upload.
const maxImportBytes = 256 << 20

// handleImport stores the PGN (plain or zstd-compressed) sent as the
// request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	body, err := pgn.NewReader(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		handleError(w, r, errors.NewBadRequestError(err.Error()))
		return
	}
	defer body.Close()

	res, err := s.Imports.Import(r.Context(), body)
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		handleError(w, r, errors.NewBadRequestError("upload exceeds the size limit"))
		return
	case err != nil:
		log.Error("import failed after %d games: %v", res.Inserted, err)
		handleError(w, r, errors.NewDataSourceError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
