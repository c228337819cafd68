package models

import "time"

// GameRecord is a stored game as returned by the game repository.
type GameRecord struct {
	ID        int64     `json:"id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    string    `json:"result"`
	Date      string    `json:"date"`
	Event     string    `json:"event"`
	Site      string    `json:"site"`
	ECOCode   string    `json:"eco_code"`
	Moves     []string  `json:"moves"`
	CreatedAt time.Time `json:"created_at"`
}
