package repository

import (
	"context"

	"github.com/vytor/openingtree/internal/models"
)

// GameRepository handles game data access. Player matching is a
// substring match ignoring case with Unicode rules, and results are
// ordered by id.
type GameRepository interface {
	Get(ctx context.Context, id int64) (*models.GameRecord, error)
	SearchByPlayer(ctx context.Context, name string) ([]models.GameRecord, error)
	SearchByPlayerAndSide(ctx context.Context, name string, asWhite bool) ([]models.GameRecord, error)
	All(ctx context.Context) ([]models.GameRecord, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, game models.GameRecord) (int64, error)
	InsertBatch(ctx context.Context, games []models.GameRecord) ([]int64, error)
	// Players lists names containing query, most games first.
	Players(ctx context.Context, query string, limit int) ([]models.PlayerSummary, error)
}
