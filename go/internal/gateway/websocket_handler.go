package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/powermatch/go/internal/curves"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for games
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	sessions          *SessionHandler

	mu      sync.Mutex
	closing bool
	games   sync.WaitGroup
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, sessions *SessionHandler) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		sessions:          sessions,
	}
}

// HandleGameConnection upgrades the request and plays one game on it. The
// request goroutine owns the session until it ends.
func (h *WebSocketHandler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if strings.TrimSpace(name) == "" {
		http.Error(w, "player name is required", http.StatusBadRequest)
		return
	}

	rawDifficulty := pathParam(r, "difficulty")
	difficulty, known := curves.ParseDifficulty(rawDifficulty)
	if !known {
		log.Warn().
			Str("player", name).
			Str("difficulty", rawDifficulty).
			Msg("unknown difficulty, playing with fallback settings")
	}

	if !h.beginGame() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.games.Done()

	conn, err := h.connectionManager.UpgradeConnection(w, r, name)
	if err != nil {
		log.Error().
			Err(err).
			Str("player", name).
			Msg("failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.sessions.NewSession(name, difficulty, conn).Run(r.Context())
}

func (h *WebSocketHandler) beginGame() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.games.Add(1)
	return true
}

// StopAccepting makes new game requests fail with 503
func (h *WebSocketHandler) StopAccepting() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closing = true
}

// Wait blocks until running games have finished or ctx is done
func (h *WebSocketHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.games.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := ConnectionStats{
		TotalConnections: h.connectionManager.Count(),
		ActiveStreams:    h.sessions.ActiveStreams(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes registers WebSocket routes with a chi router
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/game/{name}/{difficulty}", h.HandleGameConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}

// pathParam returns the decoded URL parameter key
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
