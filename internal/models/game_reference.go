package models

import (
	"fmt"
	"time"
)

// GameReference is an immutable snapshot of one game's outcome as seen from
// the tracked player's side. Nodes of an opening tree hold these.
type GameReference struct {
	gameID int64
	white  string
	black  string
	result string
	date   *time.Time
	event  string
	side   Side
}

// NewGameReference copies the given fields into a new reference.
func NewGameReference(gameID int64, white, black, result string, date *time.Time, event string, side Side) GameReference {
	var d *time.Time
	if date != nil {
		v := *date
		d = &v
	}
	return GameReference{
		gameID: gameID,
		white:  white,
		black:  black,
		result: result,
		date:   d,
		event:  event,
		side:   side,
	}
}

func (g GameReference) GameID() int64  { return g.gameID }
func (g GameReference) White() string  { return g.white }
func (g GameReference) Black() string  { return g.black }
func (g GameReference) Result() string { return g.result }
func (g GameReference) Event() string  { return g.event }
func (g GameReference) Side() Side     { return g.side }

// Date returns a copy of the game date, or nil when it was not parseable.
func (g GameReference) Date() *time.Time {
	if g.date == nil {
		return nil
	}
	d := *g.date
	return &d
}

// Opponent is black for a white tracked side, white for black, nil for BOTH.
func (g GameReference) Opponent() *string {
	switch g.side {
	case SideWhite:
		o := g.black
		return &o
	case SideBlack:
		o := g.white
		return &o
	}
	return nil
}

func (g GameReference) IsWin() bool  { return g.side.IsWin(g.result) }
func (g GameReference) IsLoss() bool { return g.side.IsLoss(g.result) }
func (g GameReference) IsDraw() bool { return g.side.IsDraw(g.result) }

func (g GameReference) String() string {
	date := "????.??.??"
	if g.date != nil {
		date = g.date.Format(time.DateOnly)
	}
	return fmt.Sprintf("game #%d: %s vs %s (%s) %s", g.gameID, g.white, g.black, date, g.result)
}
