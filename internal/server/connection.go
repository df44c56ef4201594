package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/guessrush/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	playerID    uuid.UUID
	playerName  string
	coordinator *game.Coordinator
	registry    *Registry
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, coordinator *game.Coordinator, registry *Registry) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		coordinator: coordinator,
		registry:    registry,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close begins connection teardown by closing the send channel. The write
// pump drains anything already queued, so an error frame enqueued just
// before Close (a join rejection, say) still reaches the client; the pump
// closes the socket and cancels the context once the drain completes.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		close(c.send)
	})
	return nil
}

// Send queues a message for delivery. It implements Peer and never blocks on
// a slow reader: a full buffer closes the connection instead of stalling the
// caller, which keeps broadcast fan-out independent of peer speed.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown
			c.logger.Debug("attempted to send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// setPlayer associates this connection with a joined player
func (c *Connection) setPlayer(id uuid.UUID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = id
	c.playerName = name
}

// PlayerID returns the joined player's identifier, or uuid.Nil before the
// join handshake completes.
func (c *Connection) PlayerID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// PlayerName returns the joined player's display name
func (c *Connection) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client. It owns the socket's
// write side and its lifetime: the context is cancelled and the socket
// closed only here, after any messages queued before Close have been
// written. Every write carries a deadline, so a dead peer cannot stall the
// drain.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.cancel()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "player", c.PlayerName())

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		c.handleJoin(data)

	case MessageTypeGuess:
		var data GuessData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse guess data")
			return
		}
		c.handleGuess(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleJoin(data JoinData) {
	if c.PlayerID() != uuid.Nil {
		c.sendError("already_joined", "This connection has already joined")
		return
	}

	info, err := c.coordinator.Join(data.Name)
	if err != nil {
		if errors.Is(err, game.ErrGameFull) {
			c.sendError("game_full", "The game is full, try again later")
		} else {
			c.sendError("join_failed", err.Error())
		}
		_ = c.Close()
		return
	}

	c.setPlayer(info.PlayerID, info.Name)
	c.registry.Register(info.PlayerID, c)

	response, _ := NewMessage(MessageTypeWelcome, WelcomeData{
		PlayerID:  info.PlayerID.String(),
		Name:      info.Name,
		Round:     info.Round,
		MaxRounds: info.MaxRounds,
		Min:       info.Min,
		Max:       info.Max,
		Players:   info.Players,
	})
	_ = c.Send(response)
}

func (c *Connection) handleGuess(data GuessData) {
	id := c.PlayerID()
	if id == uuid.Nil {
		c.sendError("not_joined", "Join with a name before guessing")
		return
	}

	err := c.coordinator.Guess(id, data.Value)
	switch {
	case err == nil:
		// Outcome reaches the client through the broadcast stream

	case errors.Is(err, game.ErrMalformedGuess):
		c.sendError("malformed_guess", err.Error())

	case errors.Is(err, game.ErrRoundNotActive):
		c.sendError("round_not_active", "No round is in progress")

	case errors.Is(err, game.ErrRoundAlreadyWon):
		c.sendError("too_late", "The round was already won")

	case errors.Is(err, game.ErrUnknownPlayer):
		// The coordinator no longer knows this player; drop the connection
		c.logger.Warn("guess from unknown player", "id", id)
		_ = c.Close()

	default:
		c.sendError("guess_failed", err.Error())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}

	_ = c.Send(errorMsg)
}
