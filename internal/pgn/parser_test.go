package pgn_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingtree/internal/pgn"
)

const twoGames = `[Event "Linares"]
[Site "Linares ESP"]
[Date "1994.02.27"]
[White "Kasparov, Garry"]
[Black "Anand, Viswanathan"]
[Result "1-0"]
[ECO "B90"]

1. e4 c5 2. Nf3 d6 {Najdorf coming} 3. d4 cxd4 4. Nxd4 Nf6 5. Nc3 a6 1-0

[Event "Casual"]
[White "Smith, John"]
[Black "Kasparov, Garry"]
[Result "1/2-1/2"]

1.d4 Nf6 2.c4 (2.Nf3 g6) e6 $1 3.Nc3! Bb4?! 1/2-1/2
`

func TestParsePGNHeaders_ValidHeaders(t *testing.T) {
	headers := pgn.ParsePGNHeaders(twoGames)

	assert.Equal(t, "Casual", headers["Event"], "later tags overwrite earlier ones")
	assert.Equal(t, "Smith, John", headers["White"])
	assert.Equal(t, "1/2-1/2", headers["Result"])
}

func TestParsePGNHeaders_EmptyAndMalformed(t *testing.T) {
	assert.Empty(t, pgn.ParsePGNHeaders(""))
	assert.Empty(t, pgn.ParsePGNHeaders("1. e4 e5 2. Nf3 Nc6"))
	assert.Empty(t, pgn.ParsePGNHeaders("[Event Live Chess]\n[Invalid header]\n1. e4 e5"))
}

func TestParseMovetext(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "numbered moves with result",
			text:     "1. e4 e5 2. Nf3 Nc6 1-0",
			expected: []string{"e4", "e5", "Nf3", "Nc6"},
		},
		{
			name:     "attached numbers and black continuation",
			text:     "1.e4 1...c5 2.Nf3",
			expected: []string{"e4", "c5", "Nf3"},
		},
		{
			name:     "comments variations and NAGs dropped",
			text:     "1. d4 {main} Nf6 (1... d5 2. c4 (2. Nf3)) 2. c4 $14 ; rest of line\n e6 *",
			expected: []string{"d4", "Nf6", "c4", "e6"},
		},
		{
			name:     "annotation glyphs stripped",
			text:     "1. e4! e5?? 2. Qh5!? Nc6 3. Bc4 Nf6?? 4. Qxf7#",
			expected: []string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7#"},
		},
		{
			name:     "empty",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pgn.ParseMovetext(tt.text))
		})
	}
}

func TestSplitGamesAndParseRecord(t *testing.T) {
	var games []string
	err := pgn.SplitGames(strings.NewReader(twoGames), func(game string) error {
		games = append(games, game)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, games, 2)

	first := pgn.ParseRecord(games[0])
	assert.Equal(t, "Kasparov, Garry", first.White)
	assert.Equal(t, "Anand, Viswanathan", first.Black)
	assert.Equal(t, "1-0", first.Result)
	assert.Equal(t, "1994.02.27", first.Date)
	assert.Equal(t, "Linares", first.Event)
	assert.Equal(t, "B90", first.ECOCode)
	assert.Equal(t, []string{"e4", "c5", "Nf3", "d6", "d4", "cxd4", "Nxd4", "Nf6", "Nc3", "a6"}, first.Moves)

	second := pgn.ParseRecord(games[1])
	assert.Equal(t, "Smith, John", second.White)
	assert.Equal(t, "", second.Date)
	assert.Equal(t, []string{"d4", "Nf6", "c4", "e6", "Nc3", "Bb4"}, second.Moves)
}

func TestSplitGames_CallbackErrorStops(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := pgn.SplitGames(strings.NewReader(twoGames), func(string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestSplitGames_EmptyInput(t *testing.T) {
	calls := 0
	err := pgn.SplitGames(strings.NewReader("\n\n"), func(string) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Zero(t, calls)
}
