package models

import "strings"

// Side is the color attributed to the tracked player in a game.
type Side string

const (
	SideWhite Side = "white"
	SideBlack Side = "black"
	SideBoth  Side = "both"
)

// Result tokens as they appear in the PGN Result tag.
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
	resultDrawShort = "1/2"
)

// ParseSide maps user input to a Side. Anything unrecognised is SideBoth.
func ParseSide(s string) Side {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return SideWhite
	case "black", "b":
		return SideBlack
	default:
		return SideBoth
	}
}

func (s Side) String() string { return string(s) }

// WinResult returns the result token that counts as a win for s.
func (s Side) WinResult() string {
	switch s {
	case SideWhite:
		return ResultWhiteWins
	case SideBlack:
		return ResultBlackWins
	}
	return ""
}

// LossResult returns the result token that counts as a loss for s.
func (s Side) LossResult() string {
	switch s {
	case SideWhite:
		return ResultBlackWins
	case SideBlack:
		return ResultWhiteWins
	}
	return ""
}

// IsWin reports whether result is a win from s's perspective. Always false for SideBoth.
func (s Side) IsWin(result string) bool {
	if s != SideWhite && s != SideBlack {
		return false
	}
	return result == s.WinResult()
}

// IsLoss reports whether result is a loss from s's perspective. Always false for SideBoth.
func (s Side) IsLoss(result string) bool {
	if s != SideWhite && s != SideBlack {
		return false
	}
	return result == s.LossResult()
}

// IsDraw does not depend on the side, SideBoth included.
func (s Side) IsDraw(result string) bool {
	return result == ResultDraw || result == resultDrawShort
}

// ResolveTrackedSide attributes playerName to the white or black seat using a
// case-insensitive substring match, white first. SideBoth means the game
// cannot be attributed and must not contribute to a tree.
func ResolveTrackedSide(playerName, white, black string) Side {
	name := strings.ToLower(strings.TrimSpace(playerName))
	if name == "" {
		return SideBoth
	}
	if strings.Contains(strings.ToLower(white), name) {
		return SideWhite
	}
	if strings.Contains(strings.ToLower(black), name) {
		return SideBlack
	}
	return SideBoth
}
