// Package server manages individual WebSocket clients, handling read/write
// pumps, inbound pacing, and lifecycle control for each connection.
package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/config"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client represents a WebSocket client connection in the chat system.
// It manages the connection state, message sending channel, hub reference,
// and client address information.
type Client struct {
	id             string
	name           string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	maxMessageSize int64
	rateLimiter    *rateLimiter
	logger         *zap.Logger
}

// NewClient creates a new Client for conn. The client's send channel is
// buffered to cfg.SendBuffer messages.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, cfg config.ServerConfig) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 1
	}

	logger := zap.NewNop()
	if hub != nil {
		logger = hub.logger.Named("client")
	}

	return &Client{
		id:             uuid.NewString(),
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		hub:            hub,
		addr:           addr,
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		logger:         logger,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Name returns the display name assigned at registration.
func (c *Client) Name() string {
	return c.name
}

// GetSendChan returns the client's send channel for reading outgoing messages.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// extendReadDeadline pushes the read deadline one pong interval forward.
func (c *Client) extendReadDeadline() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Debug("Error setting read deadline", zap.String("addr", c.addr), zap.Error(err))
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})
}

// logReadError records why the read loop ended. Close frames and closed
// sockets are the normal end of a session.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("Message exceeded maximum size",
			zap.String("addr", c.addr), zap.Int64("limit", c.maxMessageSize))
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		c.logger.Info("Client disconnected", zap.String("addr", c.addr), zap.String("name", c.name))
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Info("Client connection closed", zap.String("addr", c.addr), zap.Error(err))
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.logger.Warn("Unexpected WebSocket close", zap.String("addr", c.addr), zap.Error(err))
	default:
		c.logger.Info("WebSocket read ended", zap.String("addr", c.addr), zap.Error(err))
	}
}

// awaitRateLimit paces the read loop when rate limiting is enabled. Lines
// over the limit are held until a token refills. It returns false only when
// ctx ends.
func (c *Client) awaitRateLimit(ctx context.Context) bool {
	if c.rateLimiter == nil {
		return true
	}
	if err := c.rateLimiter.wait(ctx); err != nil {
		c.logger.Debug("Rate limit wait aborted", zap.String("addr", c.addr), zap.Error(err))
		return false
	}
	return true
}

// readPump runs the session: every text frame is dispatched through router
// until the connection fails or closes. The client is always unregistered on exit.
func (c *Client) readPump(ctx context.Context, router *Router) {
	defer func() {
		c.hub.Unregister(c)
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.awaitRateLimit(ctx) {
			return
		}

		router.Dispatch(ctx, c.name, string(rawMessage))

		// An exchange command may have outlived the previous deadline while
		// pongs sat unread in the socket buffer.
		c.extendReadDeadline()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Debug("Error closing connection", zap.String("addr", c.addr), zap.Error(err))
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Debug("Error setting write deadline", zap.String("addr", c.addr), zap.Error(err))
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		c.logger.Debug("Error writing close message", zap.String("addr", c.addr), zap.Error(err))
	}
	return false
}

// writeTextMessage writes one message as its own text frame.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("Error writing message", zap.String("addr", c.addr), zap.Error(err))
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Debug("Error setting write deadline for ping", zap.String("addr", c.addr), zap.Error(err))
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug("Error writing ping message", zap.String("addr", c.addr), zap.Error(err))
		return false
	}
	return true
}
