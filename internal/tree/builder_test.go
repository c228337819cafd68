package tree_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingtree/internal/errors"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/testutil/mocks"
	"github.com/vytor/openingtree/internal/tree"
)

func game(id int64, white, black, result string, moves ...string) models.GameRecord {
	return models.GameRecord{
		ID:     id,
		White:  white,
		Black:  black,
		Result: result,
		Date:   "2020.06.15",
		Event:  "Test Open",
		Moves:  moves,
	}
}

func playerFilter(name string, side models.Side) models.FilterCriteria {
	f := models.NewFilterCriteria()
	f.PlayerName = name
	f.Side = side
	return f
}

func build(t *testing.T, repo *mocks.MockGameRepository, filter models.FilterCriteria, opts ...tree.Option) *tree.Result {
	t.Helper()
	res, err := tree.NewBuilder(repo, opts...).Build(context.Background(), filter, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Root)
	return res
}

func childMoves(n *tree.Node) []string {
	var out []string
	for _, c := range n.Children() {
		out = append(out, c.Move())
	}
	return out
}

func TestBuild_SharedTrunkBranches(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen, Magnus", "Caruana, Fabiano", "1-0", "e4", "e5"),
		game(2, "Carlsen, Magnus", "Nakamura, Hikaru", "0-1", "e4", "c5"),
	}, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))
	root := res.Root

	require.Equal(t, []string{"e4"}, childMoves(root))
	e4, _ := root.Child("e4")
	assert.Equal(t, 2, e4.GameCount())
	assert.Equal(t, 1, e4.Wins())
	assert.Equal(t, 1, e4.Losses())
	assert.Equal(t, 0, e4.Draws())
	assert.Equal(t, 1, e4.Ply())

	assert.Equal(t, []string{"e5", "c5"}, childMoves(e4))
	for _, c := range e4.Children() {
		assert.Equal(t, 1, c.GameCount())
		assert.Equal(t, 2, c.Ply())
	}
	assert.Equal(t, 2, root.GameCount())
	assert.Equal(t, 2, res.Summary.Contributed)
	repo.AssertExpectations(t)
}

func TestBuild_EmptyMoveStopsReplay(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "e4", "e5", "", "Nf3", "Nc6"),
	}, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))

	assert.Equal(t, 2, tree.Stats(res.Root).TotalVariations)
	e5, ok := tree.Navigate(res.Root, []string{"e4", "e5"})
	require.True(t, ok)
	assert.Zero(t, e5.ChildCount())
	assert.Equal(t, 1, e5.GameCount())
	assert.Equal(t, 1, res.Summary.Truncated)
}

func TestBuild_IllegalMoveStopsReplayKeepsPrefix(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "e4", "e5", "Qh8", "Nc6"),
		game(2, "Carlsen", "Y", "1/2-1/2", "e4", "e5", "Nf3"),
	}, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))

	e5, ok := tree.Navigate(res.Root, []string{"e4", "e5"})
	require.True(t, ok)
	assert.Equal(t, 2, e5.GameCount())
	assert.Equal(t, []string{"Nf3"}, childMoves(e5))
	_, ok = e5.Child("Qh8")
	assert.False(t, ok)
}

func TestBuild_NoPlayerSkipsEveryGame(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("All", mock.Anything).Return([]models.GameRecord{
		game(1, "A", "B", "1-0", "e4", "e5"),
		game(2, "C", "D", "0-1", "d4", "d5"),
	}, nil)

	res := build(t, repo, models.NewFilterCriteria())

	assert.Zero(t, res.Root.ChildCount())
	assert.Zero(t, tree.Stats(res.Root).TotalVariations)
	assert.Equal(t, 2, res.Summary.SkippedSide)
	repo.AssertNotCalled(t, "SearchByPlayer", mock.Anything, mock.Anything)
}

func TestBuild_OpponentFilterAndDerivedOpponent(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayerAndSide", mock.Anything, "Carlsen", true).Return([]models.GameRecord{
		game(1, "Carlsen, Magnus", "John Smith", "1-0", "e4"),
		game(2, "Carlsen, Magnus", "Jane Doe", "1-0", "d4"),
	}, nil)

	filter := playerFilter("Carlsen", models.SideWhite)
	filter.Opponent = "Smith"
	res := build(t, repo, filter)

	require.Equal(t, []string{"e4"}, childMoves(res.Root))
	e4, _ := res.Root.Child("e4")
	ref := e4.Games()[0]
	require.NotNil(t, ref.Opponent())
	assert.Equal(t, "John Smith", *ref.Opponent())
	assert.Equal(t, models.SideWhite, ref.Side())
	assert.Equal(t, 1, res.Summary.SkippedOpponent)
}

func TestBuild_SideSelectsQuery(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayerAndSide", mock.Anything, "anand", false).Return([]models.GameRecord{
		game(1, "Kasparov", "Anand", "0-1", "e4", "c5"),
	}, nil)

	res := build(t, repo, playerFilter("anand", models.SideBlack))

	c5, ok := tree.Navigate(res.Root, []string{"e4", "c5"})
	require.True(t, ok)
	assert.Equal(t, 1, c5.Wins(), "0-1 is a win for the black side")
	repo.AssertExpectations(t)
}

func TestBuild_DateFilter(t *testing.T) {
	undated := game(2, "Carlsen", "X", "1-0", "d4")
	undated.Date = "????.??.??"
	old := game(3, "Carlsen", "X", "1-0", "c4")
	old.Date = "1850.01.01"
	yearOnly := game(4, "Carlsen", "X", "1-0", "Nf3")
	yearOnly.Date = "2019.??.??"

	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "e4"), undated, old, yearOnly,
	}, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))
	assert.Equal(t, []string{"e4", "Nf3"}, childMoves(res.Root))
	assert.Equal(t, 2, res.Summary.SkippedDate)

	narrow := playerFilter("carlsen", models.SideBoth)
	narrow.StartDate = time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	narrow.EndDate = time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	res = build(t, repo, narrow)
	assert.Equal(t, []string{"e4"}, childMoves(res.Root), "bounds are inclusive")
}

func TestBuild_UnknownResultSkipped(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "*", "e4"),
	}, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))
	assert.Zero(t, res.Root.ChildCount())
	assert.Equal(t, 1, res.Summary.SkippedResult)
}

func TestBuild_PlyCutoff(t *testing.T) {
	var shuffle []string
	for i := 0; i < 8; i++ {
		shuffle = append(shuffle, "Nf3", "Nf6", "Ng1", "Ng8")
	}
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1/2-1/2", shuffle...),
	}, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))
	stats := tree.Stats(res.Root)
	assert.Equal(t, tree.DefaultMaxPlies, stats.MaxDepth)
	assert.Equal(t, tree.DefaultMaxPlies, stats.TotalVariations)

	res = build(t, repo, playerFilter("carlsen", models.SideBoth), tree.WithMaxPlies(4))
	assert.Equal(t, 4, tree.Stats(res.Root).MaxDepth)
}

func TestBuild_TrunkDoesNotGrowWithGames(t *testing.T) {
	var games []models.GameRecord
	results := []string{"1-0", "0-1", "1/2-1/2"}
	for i := 0; i < 30; i++ {
		games = append(games, game(int64(i+1), "Carlsen", "X", results[i%3], "d4", "Nf6", "c4", "e6"))
	}
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return(games, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))
	assert.Equal(t, 4, tree.Stats(res.Root).TotalVariations)
	assert.Equal(t, 30, tree.Stats(res.Root).TotalGames)

	tree.Walk(res.Root, func(n *tree.Node) bool {
		assert.Equal(t, n.GameCount(), n.Wins()+n.Draws()+n.Losses())
		assert.InDelta(t, 100.0, n.WinPct()+n.DrawPct()+n.LossPct(), 1e-9)
		return true
	})
}

func TestBuild_MovePathMatchesReplayedMoves(t *testing.T) {
	line := []string{"e4", "c5", "Nf3", "d6", "d4", "cxd4", "Nxd4", "Nf6", "Nc3", "a6"}
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", line...),
	}, nil)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth))
	leaf, ok := tree.Navigate(res.Root, line)
	require.True(t, ok)
	assert.Equal(t, line, leaf.MovePath())
	assert.Equal(t, len(line), leaf.Ply())
	assert.True(t, strings.HasPrefix(leaf.PositionID(), "rnbqkb1r/1p2pppp/p2p1n2/8/3NP3/2N5/PPP2PPP/R1BQKB1R w"))
}

func TestBuild_Deterministic(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "e4", "e5", "Nf3"),
		game(2, "Y", "Carlsen", "1-0", "d4", "d5"),
		game(3, "Carlsen", "Z", "1/2-1/2", "e4", "c5"),
		game(4, "Carlsen", "Z", "0-1", "e4", "e5", "Bc4"),
	}, nil)

	first := build(t, repo, playerFilter("carlsen", models.SideBoth))
	second := build(t, repo, playerFilter("carlsen", models.SideBoth))

	assert.Equal(t, shape(first.Root), shape(second.Root))
	assert.NotSame(t, first.Root, second.Root)
}

func TestBuild_DataSourceErrorAborts(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("All", mock.Anything).Return(nil, stderrors.New("database is locked"))

	res, err := tree.NewBuilder(repo).Build(context.Background(), models.NewFilterCriteria(), nil)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.IsDataSource(err))
}

func TestBuild_Cancelled(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "e4"),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := tree.NewBuilder(repo).Build(ctx, playerFilter("carlsen", models.SideBoth), nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_CancelledDuringFetch(t *testing.T) {
	tests := []struct {
		name  string
		games []models.GameRecord
		err   error
	}{
		{"empty result", []models.GameRecord{}, nil},
		{"store error", nil, stderrors.New("interrupted")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			repo := new(mocks.MockGameRepository)
			repo.On("SearchByPlayer", mock.Anything, "carlsen").
				Run(func(mock.Arguments) { cancel() }).
				Return(tt.games, tt.err)

			res, err := tree.NewBuilder(repo).Build(ctx, playerFilter("carlsen", models.SideBoth), nil)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, context.Canceled)
			assert.False(t, errors.IsDataSource(err))
		})
	}
}

func TestBuild_CancelledAfterLastGame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "e4"),
	}, nil)

	progress := func(phase tree.Phase, current, total int) {
		if phase == tree.PhaseBuilding && current == total {
			cancel()
		}
	}
	res, err := tree.NewBuilder(repo).Build(ctx, playerFilter("carlsen", models.SideBoth), progress)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_ReportsProgress(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "e4"),
		game(2, "Carlsen", "X", "1-0", "d4"),
	}, nil)

	var events []string
	_, err := tree.NewBuilder(repo).Build(context.Background(), playerFilter("carlsen", models.SideBoth),
		func(phase tree.Phase, current, total int) {
			events = append(events, fmt.Sprintf("%s %d/%d", phase, current, total))
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"fetching 0/0", "building 1/2", "building 2/2"}, events)
}

func TestBuild_EngineRejectionStopsReplay(t *testing.T) {
	repo := new(mocks.MockGameRepository)
	repo.On("SearchByPlayer", mock.Anything, "carlsen").Return([]models.GameRecord{
		game(1, "Carlsen", "X", "1-0", "m1", "m2", "m3"),
	}, nil)

	eng := new(mocks.MockMoveEngine)
	eng.On("Reset").Return()
	eng.On("PositionID").Return("pos")
	eng.On("Ply").Return(1)
	eng.On("ApplyMove", "m1").Return(true)
	eng.On("ApplyMove", "m2").Return(false)

	res := build(t, repo, playerFilter("carlsen", models.SideBoth),
		tree.WithEngine(func() tree.MoveEngine { return eng }))

	assert.Equal(t, 1, tree.Stats(res.Root).TotalVariations)
	eng.AssertNotCalled(t, "ApplyMove", "m3")
}

// shape flattens a tree into path, counts and child order for comparison.
func shape(root *tree.Node) []string {
	var out []string
	tree.Walk(root, func(n *tree.Node) bool {
		out = append(out, fmt.Sprintf("%v n=%d w=%d d=%d l=%d children=%v",
			n.MovePath(), n.GameCount(), n.Wins(), n.Draws(), n.Losses(), childMoves(n)))
		return true
	})
	return out
}
