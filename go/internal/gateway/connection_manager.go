package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager tracks the open game connections
type ConnectionManager struct {
	connections map[*Connection]struct{}
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	config ConnectionConfig
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	InboundBuffer   int
	CheckOrigin     func(r *http.Request) bool
}

// ConnectionStats is the payload of the stats endpoint
type ConnectionStats struct {
	TotalConnections int `json:"total_connections"`
	ActiveStreams    int `json:"active_streams"`
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024, // 1KB max message size
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		InboundBuffer:   16,
		CheckOrigin: func(r *http.Request) bool {
			// The game UI may be served from another origin
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	defaults := DefaultConnectionConfig()
	if config.InboundBuffer <= 0 {
		config.InboundBuffer = defaults.InboundBuffer
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	return &ConnectionManager{
		connections: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and starts its
// read and ping loops. On failure the upgrader has already replied to the
// client.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, player string) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := newConnection(uuid.New().String(), player, conn, cm)
	cm.registerConnection(connection)

	go connection.readPump()
	go connection.pingLoop()

	log.Info().
		Str("connection_id", connection.ID).
		Str("player", player).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return connection, nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = struct{}{}

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; !exists {
		return
	}
	delete(cm.connections, conn)

	log.Info().
		Str("connection_id", conn.ID).
		Str("player", conn.Player).
		Dur("connected_for", time.Since(conn.ConnectedAt)).
		Msg("connection unregistered")
}

// Count returns the number of open connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll closes every open connection. Running sessions see a disconnect
// and wind down on their own.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	snapshot := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		snapshot = append(snapshot, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range snapshot {
		conn.CloseWithReason(websocket.CloseGoingAway, "server shutting down")
	}

	if len(snapshot) > 0 {
		log.Info().Int("connections", len(snapshot)).Msg("closed open connections")
	}
}
