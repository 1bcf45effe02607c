package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoreRecord is the persisted result of one finished game.
type ScoreRecord struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Score      float64   `json:"score"`
	Difficulty string    `json:"difficulty"`
	Seed       int       `json:"seed"`
	Timestamp  time.Time `json:"timestamp"`
}

// LeaderboardEntry is one row of a highscore list.
type LeaderboardEntry struct {
	Name       string    `json:"name"`
	Score      float64   `json:"score"`
	Difficulty string    `json:"difficulty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Leaderboard holds the all-time and trailing-24h highscore lists.
type Leaderboard struct {
	AllTime []LeaderboardEntry `json:"alltime"`
	Recent  []LeaderboardEntry `json:"recent"`
}
