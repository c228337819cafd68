package sqlite

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/openingtree/internal/logger"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var gameColumns = []string{"id", "white", "black", "result", "date", "event", "site", "eco_code", "moves", "created_at"}

type gameRepository struct {
	db *sql.DB
}

// NewGameRepository creates a new GameRepository implementation
func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Get(ctx context.Context, id int64) (*models.GameRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting game: id=%d", id)

	games, err := r.query(ctx, sqlBuilder.Select(gameColumns...).From("games").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		log.Debug("game not found: id=%d", id)
		return nil, sql.ErrNoRows
	}
	return &games[0], nil
}

func (r *gameRepository) SearchByPlayer(ctx context.Context, name string) ([]models.GameRecord, error) {
	logger.FromContext(ctx).WithPrefix("game_repo").Debug("searching games by player: %q", name)

	pattern := likePattern(name)
	return r.query(ctx, sqlBuilder.Select(gameColumns...).From("games").
		Where(squirrel.Or{
			squirrel.Expr(`fold(white) LIKE ? ESCAPE '\'`, pattern),
			squirrel.Expr(`fold(black) LIKE ? ESCAPE '\'`, pattern),
		}).
		OrderBy("id ASC"))
}

func (r *gameRepository) SearchByPlayerAndSide(ctx context.Context, name string, asWhite bool) ([]models.GameRecord, error) {
	logger.FromContext(ctx).WithPrefix("game_repo").Debug("searching games by player: %q as_white=%t", name, asWhite)

	column := "black"
	if asWhite {
		column = "white"
	}
	return r.query(ctx, sqlBuilder.Select(gameColumns...).From("games").
		Where(squirrel.Expr(`fold(`+column+`) LIKE ? ESCAPE '\'`, likePattern(name))).
		OrderBy("id ASC"))
}

func (r *gameRepository) All(ctx context.Context) ([]models.GameRecord, error) {
	logger.FromContext(ctx).WithPrefix("game_repo").Debug("listing all games")
	return r.query(ctx, sqlBuilder.Select(gameColumns...).From("games").OrderBy("id ASC"))
}

func (r *gameRepository) Count(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&count); err != nil {
		log.Error("failed to count games: %v", err)
		return 0, err
	}
	return count, nil
}

// DefaultPlayerLimit caps Players when no positive limit is given.
const DefaultPlayerLimit = 20

func (r *gameRepository) Players(ctx context.Context, query string, limit int) ([]models.PlayerSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("searching players: %q", query)
	if limit <= 0 {
		limit = DefaultPlayerLimit
	}

	pattern := likePattern(query)
	seats := sqlBuilder.Select("white AS name", "1 AS w", "0 AS b").From("games").
		Where(squirrel.Expr(`fold(white) LIKE ? ESCAPE '\'`, pattern)).
		Suffix(`UNION ALL SELECT black, 0, 1 FROM games WHERE fold(black) LIKE ? ESCAPE '\'`, pattern)

	q, args, err := sqlBuilder.Select("name", "SUM(w)", "SUM(b)").
		FromSelect(seats, "seats").
		Where(squirrel.NotEq{"name": ""}).
		GroupBy("name").
		OrderBy("COUNT(*) DESC", "name ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		log.Error("failed to search players: %v", err)
		return nil, err
	}
	defer rows.Close()

	var players []models.PlayerSummary
	for rows.Next() {
		var p models.PlayerSummary
		if err := rows.Scan(&p.Name, &p.AsWhite, &p.AsBlack); err != nil {
			return nil, err
		}
		p.Games = p.AsWhite + p.AsBlack
		players = append(players, p)
	}
	return players, rows.Err()
}

const insertGameSQL = `
INSERT INTO games (checksum, white, black, result, date, event, site, eco_code, moves)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(checksum) DO NOTHING
`

// Insert stores g. A game already present (same players, date, event,
// result and moves) is not duplicated; its existing id is returned.
func (r *gameRepository) Insert(ctx context.Context, g models.GameRecord) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("inserting game: %s vs %s", g.White, g.Black)

	args, err := insertArgs(g)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, insertGameSQL, args...)
	if err != nil {
		log.Error("failed to insert game: %v", err)
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return res.LastInsertId()
	}
	var id int64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM games WHERE checksum = ?`, args[0]).Scan(&id)
	if err != nil {
		log.Error("failed to get game id: %v", err)
	} else {
		log.Debug("game exists: id=%d", id)
	}
	return id, err
}

// InsertBatch inserts games in one transaction and returns the ids of the
// newly stored ones.
func (r *gameRepository) InsertBatch(ctx context.Context, games []models.GameRecord) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("batch inserting %d games", len(games))

	if len(games) == 0 {
		return nil, nil
	}

	var insertedIDs []int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertGameSQL)
		if err != nil {
			log.Error("failed to prepare batch insert: %v", err)
			return err
		}
		defer stmt.Close()

		for _, g := range games {
			args, err := insertArgs(g)
			if err != nil {
				return err
			}
			res, err := stmt.ExecContext(ctx, args...)
			if err != nil {
				log.Error("failed to insert game %s vs %s: %v", g.White, g.Black, err)
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				if id, err := res.LastInsertId(); err == nil {
					insertedIDs = append(insertedIDs, id)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("batch insert completed, %d new games inserted", len(insertedIDs))
	return insertedIDs, nil
}

func (r *gameRepository) query(ctx context.Context, q squirrel.SelectBuilder) ([]models.GameRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query games: %v", err)
		return nil, err
	}
	defer rows.Close()

	var games []models.GameRecord
	for rows.Next() {
		var (
			g     models.GameRecord
			moves string
		)
		if err := rows.Scan(&g.ID, &g.White, &g.Black, &g.Result, &g.Date, &g.Event, &g.Site, &g.ECOCode, &moves, &g.CreatedAt); err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(moves), &g.Moves); err != nil {
			log.Error("failed to decode moves of game %d: %v", g.ID, err)
			return nil, err
		}
		games = append(games, g)
	}
	log.Debug("found %d games", len(games))
	return games, rows.Err()
}

func insertArgs(g models.GameRecord) ([]any, error) {
	moves := g.Moves
	if moves == nil {
		moves = []string{}
	}
	encoded, err := json.Marshal(moves)
	if err != nil {
		return nil, err
	}
	result := g.Result
	if result == "" {
		result = "*"
	}
	return []any{checksum(g, encoded), g.White, g.Black, result, g.Date, g.Event, g.Site, g.ECOCode, string(encoded)}, nil
}

func checksum(g models.GameRecord, moves []byte) string {
	h := sha1.New()
	for _, part := range []string{g.White, g.Black, g.Date, g.Event, g.Site, g.Result} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(moves)
	return hex.EncodeToString(h.Sum(nil))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches name anywhere in a fold()ed column.
func likePattern(name string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(name))) + "%"
}
