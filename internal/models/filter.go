package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/vytor/openingtree/internal/errors"
)

// DefaultStartDate is the lower bound used when no start date is given.
var DefaultStartDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// FilterCriteria selects the games that feed one tree build. It is treated as
// immutable for the duration of a build.
type FilterCriteria struct {
	PlayerName string    `json:"player_name" yaml:"player_name"`
	Side       Side      `json:"side" yaml:"side"`
	StartDate  time.Time `json:"start_date" yaml:"start_date"`
	EndDate    time.Time `json:"end_date" yaml:"end_date"`
	Opponent   string    `json:"opponent" yaml:"opponent"`
}

// NewFilterCriteria returns criteria with side BOTH and the date range
// [1900-01-01, today].
func NewFilterCriteria() FilterCriteria {
	return FilterCriteria{
		Side:      SideBoth,
		StartDate: DefaultStartDate,
		EndDate:   Today(),
	}
}

// Today returns the current calendar date at UTC midnight.
func Today() time.Time {
	return DateOf(time.Now())
}

// DateOf drops the clock part of t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize fills unset fields with their defaults.
func (f FilterCriteria) Normalize() FilterCriteria {
	if f.Side == "" {
		f.Side = SideBoth
	}
	if f.StartDate.IsZero() {
		f.StartDate = DefaultStartDate
	}
	if f.EndDate.IsZero() {
		f.EndDate = Today()
	}
	f.StartDate = DateOf(f.StartDate)
	f.EndDate = DateOf(f.EndDate)
	return f
}

// HasPlayer reports whether a tracked player is set.
func (f FilterCriteria) HasPlayer() bool {
	return strings.TrimSpace(f.PlayerName) != ""
}

// IsDateInRange reports whether date lies in [StartDate, EndDate]. A nil date
// never matches.
func (f FilterCriteria) IsDateInRange(date *time.Time) bool {
	if date == nil {
		return false
	}
	d := DateOf(*date)
	return !d.Before(DateOf(f.StartDate)) && !d.After(DateOf(f.EndDate))
}

// MatchesOpponent is a case-insensitive substring match. An unset or blank
// filter matches everything, including a nil name.
func (f FilterCriteria) MatchesOpponent(name *string) bool {
	want := strings.TrimSpace(f.Opponent)
	if want == "" {
		return true
	}
	if name == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*name), strings.ToLower(want))
}

// ResolveOpponent returns the name across the board from the tracked player,
// or nil when the player cannot be placed in the game.
func (f FilterCriteria) ResolveOpponent(white, black string) *string {
	switch ResolveTrackedSide(f.PlayerName, white, black) {
	case SideWhite:
		return &black
	case SideBlack:
		return &white
	}
	return nil
}

func (f FilterCriteria) String() string {
	return fmt.Sprintf("player=%q side=%s dates=%s..%s opponent=%q",
		f.PlayerName, f.Side, f.StartDate.Format(time.DateOnly), f.EndDate.Format(time.DateOnly), f.Opponent)
}

// ParseFilter builds criteria from user-supplied strings. Dates use the
// yyyy-mm-dd form; empty values take the defaults of NewFilterCriteria.
func ParseFilter(player, side, from, to, opponent string) (FilterCriteria, error) {
	f := NewFilterCriteria()
	f.PlayerName = strings.TrimSpace(player)
	f.Opponent = strings.TrimSpace(opponent)

	switch strings.ToLower(strings.TrimSpace(side)) {
	case "", "both":
	case "white", "w", "black", "b":
		f.Side = ParseSide(side)
	default:
		return FilterCriteria{}, errors.NewValidationError("side", fmt.Sprintf("%q is not white, black or both", side))
	}

	var err error
	if f.StartDate, err = parseDay(from, f.StartDate); err != nil {
		return FilterCriteria{}, errors.NewValidationError("start_date", err.Error())
	}
	if f.EndDate, err = parseDay(to, f.EndDate); err != nil {
		return FilterCriteria{}, errors.NewValidationError("end_date", err.Error())
	}
	if f.StartDate.After(f.EndDate) {
		return FilterCriteria{}, errors.NewValidationError("start_date", "must not be after end_date")
	}
	return f, nil
}

func parseDay(s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a yyyy-mm-dd date", s)
	}
	return t, nil
}
