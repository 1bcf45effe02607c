package scores

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/powermatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// LeaderboardSize is how many entries each highscore list holds
	LeaderboardSize = 5
	// RecentWindow is the trailing window of the "recent" highscore list
	RecentWindow = 24 * time.Hour
)

// ScoresRepository defines what the app layer needs from the repository
type ScoresRepository interface {
	InsertScore(ctx context.Context, record models.ScoreRecord) error
	TopScores(ctx context.Context, limit int) ([]models.ScoreRecord, error)
	TopScoresSince(ctx context.Context, since time.Time, limit int) ([]models.ScoreRecord, error)
}

// Store is a repository that can report its connectivity
type Store interface {
	ScoresRepository
	Ping(ctx context.Context) error
}

// App handles score persistence and leaderboard logic
type App struct {
	repo  ScoresRepository
	clock clockwork.Clock
}

// NewApp creates a new scores App
func NewApp(repo ScoresRepository, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:  repo,
		clock: clock,
	}
}

// Persist stores a finished game. ID and timestamp are filled in when
// missing.
func (a *App) Persist(ctx context.Context, record models.ScoreRecord) error {
	if err := validateRecord(record); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = a.clock.Now().UTC()
	}

	if err := a.repo.InsertScore(ctx, record); err != nil {
		return fmt.Errorf("failed to persist score: %w", err)
	}

	log.Info().
		Str("score_id", record.ID.String()).
		Str("player", record.Name).
		Str("difficulty", record.Difficulty).
		Float64("score", record.Score).
		Int("seed", record.Seed).
		Msg("score saved")
	return nil
}

// Leaderboard returns the top scores of all time and of the last 24 hours
func (a *App) Leaderboard(ctx context.Context) (*models.Leaderboard, error) {
	allTime, err := a.repo.TopScores(ctx, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load all-time scores: %w", err)
	}

	since := a.clock.Now().Add(-RecentWindow)
	recent, err := a.repo.TopScoresSince(ctx, since, LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent scores: %w", err)
	}

	return &models.Leaderboard{
		AllTime: toEntries(allTime),
		Recent:  toEntries(recent),
	}, nil
}

func toEntries(records []models.ScoreRecord) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, models.LeaderboardEntry{
			Name:       r.Name,
			Score:      math.Round(r.Score*100) / 100,
			Difficulty: r.Difficulty,
			Timestamp:  r.Timestamp,
		})
	}
	return entries
}

func validateRecord(record models.ScoreRecord) error {
	if strings.TrimSpace(record.Name) == "" {
		return errors.New("player name is required")
	}
	if record.Difficulty == "" {
		return errors.New("difficulty is required")
	}
	if math.IsNaN(record.Score) || math.IsInf(record.Score, 0) {
		return errors.New("score must be a finite number")
	}
	return nil
}
