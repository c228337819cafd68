package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/vytor/openingtree/internal/logger"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/pgn"
	"github.com/vytor/openingtree/internal/repository"
	"github.com/vytor/openingtree/internal/stats"
)

// ImportBatchSize is how many games are written per transaction.
const ImportBatchSize = 500

// ImportResult counts what happened to each game in the input.
type ImportResult struct {
	Parsed     int           `json:"parsed"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Rejected   int           `json:"rejected"`
	Duration   time.Duration `json:"duration"`
}

// ImportService loads PGN text into the game store.
type ImportService interface {
	Import(ctx context.Context, r io.Reader) (ImportResult, error)
}

type importService struct {
	repo    repository.GameRepository
	metrics stats.Collector
}

// NewImportService creates a new ImportService. A nil collector disables
// metrics.
func NewImportService(repo repository.GameRepository, metrics stats.Collector) ImportService {
	if metrics == nil {
		metrics = stats.Noop{}
	}
	return &importService{repo: repo, metrics: metrics}
}

func (s *importService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	log := logger.FromContext(ctx).WithPrefix("import_service")
	start := time.Now()
	var res ImportResult

	batch := make([]models.GameRecord, 0, ImportBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		ids, err := s.repo.InsertBatch(ctx, batch)
		if err != nil {
			return err
		}
		res.Inserted += len(ids)
		res.Duplicates += len(batch) - len(ids)
		s.metrics.IncCounter(stats.MetricGamesImported, int64(len(ids)))
		log.Debug("stored batch of %d games (%d new)", len(batch), len(ids))
		batch = batch[:0]
		return nil
	}

	err := pgn.SplitGames(r, func(text string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := pgn.ParseRecord(text)
		if !usable(rec) {
			res.Rejected++
			s.metrics.IncCounter(stats.MetricImportErrors, 1)
			return nil
		}
		res.Parsed++
		batch = append(batch, rec)
		if len(batch) >= ImportBatchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	res.Duration = time.Since(start)
	if err != nil {
		log.Error("import stopped after %d games: %v", res.Parsed, err)
		return res, err
	}

	log.Info("imported %d games (%d duplicates, %d rejected) in %v",
		res.Inserted, res.Duplicates, res.Rejected, res.Duration)
	return res, nil
}

// usable reports whether a record names at least one player and has moves.
func usable(rec models.GameRecord) bool {
	if strings.TrimSpace(rec.White) == "" && strings.TrimSpace(rec.Black) == "" {
		return false
	}
	return len(rec.Moves) > 0
}
