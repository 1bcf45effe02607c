package scores

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/powermatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

// LeaderboardProvider is what the HTTP layer needs from the App
type LeaderboardProvider interface {
	Leaderboard(ctx context.Context) (*models.Leaderboard, error)
}

// Service exposes the highscore lists over HTTP
type Service struct {
	app LeaderboardProvider
}

// NewService creates a new scores Service
func NewService(app LeaderboardProvider) *Service {
	return &Service{
		app: app,
	}
}

// RegisterRoutes mounts the highscore endpoint
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/api/highscores", s.HandleHighscores)
}

// HandleHighscores writes {"alltime": [...], "recent": [...]}
func (s *Service) HandleHighscores(w http.ResponseWriter, r *http.Request) {
	board, err := s.app.Leaderboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		http.Error(w, "failed to load highscores", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(board); err != nil {
		log.Error().Err(err).Msg("failed to write highscores response")
	}
}
