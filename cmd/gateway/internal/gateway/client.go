package gateway

import (
	"encoding/json"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/hub"
	"github.com/ethanlane1234/financial-literacy/cmd/gateway/internal/protocol"
	"github.com/ethanlane1234/financial-literacy/pkg/models"
)

const (
	maxMessageSize    = 64 * 1024
	defaultSendBuffer = 256
)

type Option func(*ClientAdapter)

// WithSendBuffer sets how many outbound frames may queue before new ones
// are dropped.
func WithSendBuffer(n int) Option {
	return func(c *ClientAdapter) {
		if n > 0 {
			c.send = make(chan []byte, n)
		}
	}
}

func WithTimeouts(writeWait, pongWait time.Duration) Option {
	return func(c *ClientAdapter) {
		c.writeWait = writeWait
		c.pongWait = pongWait
		c.pingPeriod = pongWait * 9 / 10
	}
}

type ClientAdapter struct {
	id     models.ConnID
	conn   net.Conn
	hub    *hub.Hub
	send   chan []byte
	logger *zap.Logger

	mu     sync.Mutex
	closed bool

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger, opts ...Option) *ClientAdapter {
	c := &ClientAdapter{
		id:         models.ConnID(uuid.NewString()),
		conn:       conn,
		hub:        h,
		send:       make(chan []byte, defaultSendBuffer),
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.With(zap.String("conn", string(c.id)), zap.String("remote", conn.RemoteAddr().String()))
	return c
}

// Start registers the connection with the hub and runs its pumps.
func (c *ClientAdapter) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *ClientAdapter) ID() models.ConnID { return c.id }

// Close stops the write pump, which closes the socket. Idempotent.
func (c *ClientAdapter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *ClientAdapter) SendBytes(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// Drop message if buffer full (Backpressure)
		c.logger.Debug("Send buffer full, dropping message")
	}
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			break
		}

		if header.Length > int64(maxMessageSize) {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			break
		}

		if !header.Fin {
			c.logger.Warn("Client sent fragmented message (not supported)")
			break
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			break
		}

		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPong, ws.OpPing:
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			continue
		case ws.OpText:
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			var env protocol.Envelope
			if err := json.Unmarshal(payload, &env); err != nil {
				c.logger.Debug("Ignoring malformed frame", zap.Error(err))
				continue
			}
			c.hub.HandleEvent(c, env)
		}
	}
}

func (c *ClientAdapter) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.Write(ws.CompiledClose)
				return
			}
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}
