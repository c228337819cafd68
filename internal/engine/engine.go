// Package engine applies SAN moves to a chess position. It is the move
// application collaborator of the tree builder.
package engine

import (
	"strings"
	"sync"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Engine tracks a single position from the standard start. It is not safe for
// concurrent use; the builder owns one per build.
type Engine struct {
	pos   *chess.Position
	moves []*chess.Move
	ply   int
}

// New returns an engine at the starting position.
func New() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset returns to the starting position.
func (e *Engine) Reset() {
	e.pos = chess.StartingPosition()
	e.moves = e.moves[:0]
	e.ply = 0
}

// ApplyMove decodes san against the current position and plays it. It reports
// false, leaving the position untouched, when the move is empty, unparseable
// or illegal.
func (e *Engine) ApplyMove(san string) bool {
	san = strings.TrimSpace(san)
	if san == "" {
		return false
	}
	m, err := chess.AlgebraicNotation{}.Decode(e.pos, san)
	if err != nil || m == nil {
		return false
	}
	e.pos = e.pos.Update(m)
	e.moves = append(e.moves, m)
	e.ply++
	return true
}

// PositionID returns the FEN of the current position.
func (e *Engine) PositionID() string {
	return e.pos.String()
}

// Ply returns the number of half-moves applied since the last reset.
func (e *Engine) Ply() int {
	return e.ply
}

// StartingPositionID is the FEN of the standard initial position.
func StartingPositionID() string {
	return chess.StartingPosition().String()
}

var ecoBook = sync.OnceValue(opening.NewBookECO)

// Classify names the deepest ECO opening matching path. ok is false when path
// is not legal from the start or matches no book line.
func Classify(path []string) (eco, name string, ok bool) {
	if len(path) == 0 {
		return "", "", false
	}
	e := New()
	for _, san := range path {
		if !e.ApplyMove(san) {
			return "", "", false
		}
	}
	o := ecoBook().Find(e.moves)
	if o == nil {
		return "", "", false
	}
	return o.Code(), o.Title(), true
}
