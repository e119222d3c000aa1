package websocket

import (
	"errors"
	"sync"
	"time"

	"care-relay-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Side separates the patient and expert identifier namespaces.
type Side string

const (
	SidePatient Side = "patient"
	SideExpert  Side = "expert"
)

// Connection is a live, participant-bound message channel.
type Connection interface {
	ConnID() uuid.UUID
	ParticipantID() string
	Side() Side
	// Send queues a text frame. It never blocks; a closed or saturated
	// connection returns an error.
	Send(text string) error
	Close()
}

// Client is a middleman between the websocket connection and the router.
type Client struct {
	conn        *websocket.Conn
	connID      uuid.UUID
	participant string
	side        Side
	logger      logger.ILogger

	// Buffered channel of outbound messages.
	send chan []byte

	// Closed when writePump has returned and no longer touches conn.
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ Connection = (*Client)(nil)

func NewClient(conn *websocket.Conn, side Side, participantID string, log logger.ILogger) *Client {
	return &Client{
		conn:        conn,
		connID:      uuid.New(),
		participant: participantID,
		side:        side,
		logger:      log,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
	}
}

func (c *Client) ConnID() uuid.UUID     { return c.connID }
func (c *Client) ParticipantID() string { return c.participant }
func (c *Client) Side() Side            { return c.side }

func (c *Client) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- []byte(text):
		return nil
	default:
		c.logger.Warn("Client", "Send buffer full, closing connection", c.fields())
		c.closeLocked()
		return ErrSendBufferFull
	}
}

// Close stops the write pump, which closes the socket and in turn ends the read pump.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) fields() map[string]interface{} {
	return map[string]interface{}{
		"conn_id":        c.connID,
		"participant_id": c.participant,
		"side":           c.side,
	}
}

// readPump pumps frames from the websocket connection to onMessage,
// one at a time, until the transport fails or closes.
func (c *Client) readPump(onMessage func(text string)) {
	defer c.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("Client", "Unexpected close", mergeFields(c.fields(), "error", err.Error()))
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		onMessage(string(data))
	}
}

// writePump pumps messages from the send buffer to the websocket connection.
// Each queued message is written as its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Client", "Write failed", mergeFields(c.fields(), "error", err.Error()))
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func mergeFields(base map[string]interface{}, key string, value interface{}) map[string]interface{} {
	base[key] = value
	return base
}
