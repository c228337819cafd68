package models

// PlayerSummary is a player name found in the game store with how often
// it appears on each side.
type PlayerSummary struct {
	Name    string `json:"name"`
	Games   int    `json:"games"`
	AsWhite int    `json:"as_white"`
	AsBlack int    `json:"as_black"`
}
