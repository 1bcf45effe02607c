package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrConnectionClosed is returned by Send after the connection has closed
var ErrConnectionClosed = errors.New("connection closed")

// Connection represents a WebSocket connection to a player. It implements
// Transport.
type Connection struct {
	ID          string
	Player      string
	ConnectedAt time.Time

	conn    *websocket.Conn
	manager *ConnectionManager
	inbound chan ClientMessage
	done    chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newConnection(id, player string, conn *websocket.Conn, manager *ConnectionManager) *Connection {
	return &Connection{
		ID:          id,
		Player:      player,
		ConnectedAt: time.Now(),
		conn:        conn,
		manager:     manager,
		inbound:     make(chan ClientMessage, manager.config.InboundBuffer),
		done:        make(chan struct{}),
	}
}

// Send writes v as a JSON text message
func (c *Connection) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Msg("failed to write message to WebSocket")
		c.Close()
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Messages returns decoded client messages. The channel is closed when the
// client disconnects.
func (c *Connection) Messages() <-chan ClientMessage {
	return c.inbound
}

// Done is closed once the connection has been closed
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close sends a normal close frame and closes the socket
func (c *Connection) Close() {
	c.CloseWithReason(websocket.CloseNormalClosure, "")
}

// CloseWithReason sends a close frame with code and reason, then closes the
// socket. Only the first call has any effect.
func (c *Connection) CloseWithReason(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.manager.config.WriteTimeout))
		c.conn.Close()
		c.manager.unregisterConnection(c)
	})
}

// readPump decodes client messages until the socket fails
func (c *Connection) readPump() {
	defer func() {
		close(c.inbound)
		c.Close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().
				Err(err).
				Str("connection_id", c.ID).
				Msg("ignoring malformed client message")
			continue
		}

		select {
		case c.inbound <- msg:
		default:
			log.Warn().
				Str("connection_id", c.ID).
				Str("type", string(msg.Type)).
				Msg("inbound buffer full, dropping client message")
		}
	}
}

// pingLoop keeps idle connections alive until the connection closes
func (c *Connection) pingLoop() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.manager.config.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				c.Close()
				return
			}
		}
	}
}
