package api

import (
	"database/sql"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/vytor/openingtree/internal/services"
)

type Server struct {
	Trees   services.TreeService
	Imports services.ImportService
	Players services.PlayerService
	// DB is pinged by the readiness probe. Optional.
	DB *sql.DB
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// BuildsPerMinute limits POST /api/trees. Zero disables the limit.
	BuildsPerMinute int

	builds *rate.Limiter
}
