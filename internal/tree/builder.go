package tree

import (
	"context"
	"time"

	"github.com/vytor/openingtree/internal/engine"
	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/logger"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/pgn"
)

// DefaultMaxPlies is how many half-moves of each game are replayed.
const DefaultMaxPlies = 20

// GameSource is the read side of the game store used by builds.
type GameSource interface {
	SearchByPlayer(ctx context.Context, name string) ([]models.GameRecord, error)
	SearchByPlayerAndSide(ctx context.Context, name string, asWhite bool) ([]models.GameRecord, error)
	All(ctx context.Context) ([]models.GameRecord, error)
}

// MoveEngine applies SAN moves and reports the resulting position.
type MoveEngine interface {
	Reset()
	ApplyMove(san string) bool
	PositionID() string
	Ply() int
}

// Phase labels the two stages of a build for progress reporting.
type Phase string

const (
	PhaseFetching Phase = "fetching"
	PhaseBuilding Phase = "building"
)

// ProgressFunc observes a build. total is zero while fetching.
type ProgressFunc func(phase Phase, current, total int)

// Summary accounts for every game the store returned.
type Summary struct {
	Fetched         int           `json:"fetched"`
	Retained        int           `json:"retained"`
	Contributed     int           `json:"contributed"`
	SkippedDate     int           `json:"skipped_date"`
	SkippedOpponent int           `json:"skipped_opponent"`
	SkippedSide     int           `json:"skipped_side"`
	SkippedResult   int           `json:"skipped_result"`
	Truncated       int           `json:"truncated"`
	Duration        time.Duration `json:"duration"`
}

// Result is the output of one build. The caller owns Root.
type Result struct {
	Root    *Node
	Filter  models.FilterCriteria
	Summary Summary
}

// Builder turns filtered games into a fresh opening tree per call. It keeps
// no state between builds.
type Builder struct {
	source    GameSource
	newEngine func() MoveEngine
	parseDate func(string) *time.Time
	maxPlies  int
}

// Option configures a Builder.
type Option func(*Builder)

// WithEngine sets the factory used to create the move engine for a build.
func WithEngine(factory func() MoveEngine) Option {
	return func(b *Builder) {
		b.newEngine = factory
	}
}

// WithMaxPlies overrides the replay cutoff. Non-positive values are ignored.
func WithMaxPlies(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxPlies = n
		}
	}
}

// WithDateParser overrides the PGN date parser.
func WithDateParser(fn func(string) *time.Time) Option {
	return func(b *Builder) {
		b.parseDate = fn
	}
}

// NewBuilder returns a Builder reading games from source.
func NewBuilder(source GameSource, opts ...Option) *Builder {
	b := &Builder{
		source:    source,
		newEngine: func() MoveEngine { return engine.New() },
		parseDate: pgn.ParseDate,
		maxPlies:  DefaultMaxPlies,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build selects games with filter and merges their openings into a new tree.
// Only a store failure (wrapped as a DataSourceError) or context
// cancellation aborts the build; bad moves, unplaceable players and
// unparseable dates just shrink the tree.
func (b *Builder) Build(ctx context.Context, filter models.FilterCriteria, progress ProgressFunc) (*Result, error) {
	log := logger.FromContext(ctx).WithPrefix("tree_builder")
	if progress == nil {
		progress = func(Phase, int, int) {}
	}
	filter = filter.Normalize()
	start := time.Now()
	log.Debug("building tree: %s", filter)

	progress(PhaseFetching, 0, 0)
	games, err := b.fetch(ctx, filter)
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn("build cancelled while fetching: %v", ctxErr)
		return nil, ctxErr
	}
	if err != nil {
		log.Error("failed to fetch games: %v", err)
		return nil, errors.NewDataSourceError(err)
	}

	res := &Result{Filter: filter}
	res.Summary.Fetched = len(games)

	eng := b.newEngine()
	res.Root = newRoot(b.startingPosition(eng))

	for i, game := range games {
		if err := ctx.Err(); err != nil {
			log.Warn("build cancelled after %d of %d games: %v", i, len(games), err)
			return nil, err
		}
		progress(PhaseBuilding, i+1, len(games))
		b.addGame(ctx, res, eng, game)
	}
	if err := ctx.Err(); err != nil {
		log.Warn("build cancelled after the last game: %v", err)
		return nil, err
	}

	res.Summary.Duration = time.Since(start)
	log.Info("tree built: fetched=%d retained=%d contributed=%d truncated=%d in %v",
		res.Summary.Fetched, res.Summary.Retained, res.Summary.Contributed, res.Summary.Truncated, res.Summary.Duration)
	return res, nil
}

func (b *Builder) fetch(ctx context.Context, filter models.FilterCriteria) ([]models.GameRecord, error) {
	if !filter.HasPlayer() {
		return b.source.All(ctx)
	}
	switch filter.Side {
	case models.SideWhite:
		return b.source.SearchByPlayerAndSide(ctx, filter.PlayerName, true)
	case models.SideBlack:
		return b.source.SearchByPlayerAndSide(ctx, filter.PlayerName, false)
	default:
		return b.source.SearchByPlayer(ctx, filter.PlayerName)
	}
}

func (b *Builder) startingPosition(eng MoveEngine) string {
	eng.Reset()
	return eng.PositionID()
}

// addGame runs the secondary filters and side resolution for one game and,
// if it survives, replays its opening into the tree.
func (b *Builder) addGame(ctx context.Context, res *Result, eng MoveEngine, game models.GameRecord) {
	log := logger.FromContext(ctx).WithPrefix("tree_builder").WithField("game_id", game.ID)
	filter := res.Filter

	date := b.parseDate(game.Date)
	if !filter.IsDateInRange(date) {
		if date == nil {
			log.Debug("skipping game: %v: %q", errors.ErrUnparseableDate, game.Date)
		}
		res.Summary.SkippedDate++
		return
	}
	if !filter.MatchesOpponent(filter.ResolveOpponent(game.White, game.Black)) {
		res.Summary.SkippedOpponent++
		return
	}
	res.Summary.Retained++

	side := models.ResolveTrackedSide(filter.PlayerName, game.White, game.Black)
	if side == models.SideBoth {
		log.Debug("skipping game: %v", errors.ErrAmbiguousSide)
		res.Summary.SkippedSide++
		return
	}

	ref := models.NewGameReference(game.ID, game.White, game.Black, game.Result, date, game.Event, side)
	if !ref.IsWin() && !ref.IsDraw() && !ref.IsLoss() {
		log.Debug("skipping game: %v: %q", errors.ErrUnknownResult, game.Result)
		res.Summary.SkippedResult++
		return
	}

	res.Summary.Contributed++
	res.Root.addGame(ref)
	if b.replay(eng, res.Root, ref, game.Moves) {
		log.Debug("replay stopped early: %v", errors.ErrMalformedMove)
		res.Summary.Truncated++
	}
}

// replay walks moves from the starting position, attaching ref to every node
// it passes. It reports whether replay stopped early on a bad move; nodes
// created before that point are kept.
func (b *Builder) replay(eng MoveEngine, root *Node, ref models.GameReference, moves []string) (truncated bool) {
	eng.Reset()
	node := root
	for i, san := range moves {
		if i >= b.maxPlies {
			break
		}
		if san == "" || !eng.ApplyMove(san) {
			return true
		}
		node = node.getOrCreateChild(san, eng.PositionID(), eng.Ply())
		node.addGame(ref)
	}
	return false
}
