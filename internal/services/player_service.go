package services

import (
	"context"

	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/repository"
)

// MaxPlayerResults caps one player search.
const MaxPlayerResults = 100

// PlayerService finds player names to track.
type PlayerService interface {
	Search(ctx context.Context, query string, limit int) ([]models.PlayerSummary, error)
}

type playerService struct {
	repo repository.GameRepository
}

func NewPlayerService(repo repository.GameRepository) PlayerService {
	return &playerService{repo: repo}
}

func (s *playerService) Search(ctx context.Context, query string, limit int) ([]models.PlayerSummary, error) {
	if limit > MaxPlayerResults {
		limit = MaxPlayerResults
	}
	players, err := s.repo.Players(ctx, query, limit)
	if err != nil {
		return nil, errors.NewDataSourceError(err)
	}
	if players == nil {
		players = []models.PlayerSummary{}
	}
	return players, nil
}
