package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Service is the game gateway: websocket connections plus the session
// protocol running over them
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	sessions          *SessionHandler
	shutdownTimeout   time.Duration
}

// Config holds configuration for the game gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	SessionConfig    SessionConfig
}

// DefaultConfig returns default configuration for the game gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		SessionConfig:    DefaultSessionConfig(),
	}
}

// NewService creates a new game gateway service
func NewService(config Config, lookup CurveLookup, feed InputFeed, sink ResultSink) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	sessions := NewSessionHandler(lookup, feed, sink, config.SessionConfig)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, sessions),
		sessions:          sessions,
		shutdownTimeout:   sessions.config.PersistTimeout + connectionManager.config.WriteTimeout,
	}
}

// Start blocks until ctx is cancelled, then stops the service
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting game gateway service")

	<-ctx.Done()

	log.Info().Msg("game gateway service shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

// Stop refuses new games, closes every open connection and waits for the
// running games to save their scores
func (s *Service) Stop(ctx context.Context) error {
	s.wsHandler.StopAccepting()
	s.connectionManager.CloseAll()
	if err := s.wsHandler.Wait(ctx); err != nil {
		return fmt.Errorf("wait for running games: %w", err)
	}
	log.Info().Msg("game gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(r chi.Router) {
	s.wsHandler.RegisterRoutes(r)
	log.Info().Msg("game gateway routes registered")
}

// Stats returns connection and stream counts
func (s *Service) Stats() ConnectionStats {
	return ConnectionStats{
		TotalConnections: s.connectionManager.Count(),
		ActiveStreams:    s.sessions.ActiveStreams(),
	}
}

// ActiveStreams returns the number of games currently streaming ticks
func (s *Service) ActiveStreams() int {
	return s.sessions.ActiveStreams()
}
