package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/chickenrun/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client. All four intents funnel through
// it into the engine; snapshots and responses flow back out the send
// channel.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	engine    *game.Engine
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps an upgraded WebSocket connection.
func NewConnection(conn *websocket.Conn, engine *game.Engine, logger zerolog.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 64),
		engine: engine,
		logger: logger.With().Str("component", "conn").Str("remote", conn.RemoteAddr().String()).Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. A full buffer closes the
// connection rather than blocking the broadcaster.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug().Interface("recovered", r).Msg("send on closed connection")
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn().Msg("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

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
				c.logger.Error().Err(err).Msg("websocket error")
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
				c.logger.Error().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches a client intent into the engine and answers
// with accepted or rejected.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug().Str("type", string(msg.Type)).Msg("received message")

	switch msg.Type {
	case MessageTypePlaceBet:
		var data PlaceBetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendRejected(msg.Type, "invalid_message", "failed to parse bet data")
			return
		}
		c.respond(msg.Type, c.engine.PlaceBet(data.Amount))

	case MessageTypeCashOut:
		c.respond(msg.Type, c.engine.CashOut())

	case MessageTypeResetProgress:
		c.engine.ResetProgress()
		c.respond(msg.Type, nil)

	case MessageTypeAddBalance:
		c.engine.AddTestBalance()
		c.respond(msg.Type, nil)

	default:
		c.sendRejected(msg.Type, "unknown_message_type", "unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) respond(intent MessageType, err error) {
	if err == nil {
		response, merr := NewMessage(MessageTypeAccepted, AcceptedData{Intent: intent})
		if merr != nil {
			c.logger.Error().Err(merr).Msg("failed to create response")
			return
		}
		_ = c.SendMessage(response)
		return
	}
	c.sendRejected(intent, rejectionCode(err), err.Error())
}

func (c *Connection) sendRejected(intent MessageType, code, reason string) {
	response, err := NewMessage(MessageTypeRejected, RejectedData{
		Intent: intent,
		Code:   code,
		Reason: reason,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to create rejection")
		return
	}
	_ = c.SendMessage(response)
}

// rejectionCode maps engine sentinel errors onto wire codes.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, game.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, game.ErrAlreadyBet):
		return "already_bet"
	case errors.Is(err, game.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, game.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, game.ErrNoActiveBet):
		return "no_active_bet"
	case errors.Is(err, game.ErrAlreadyCashedOut):
		return "already_cashed_out"
	default:
		return "rejected"
	}
}
