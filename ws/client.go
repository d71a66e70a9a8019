package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent. The dashboard sends a
	// heartbeat every 30s, so three missed heartbeats close the connection.
	pongWait = 90 * time.Second

	maxMessageSize = 4096

	sendBufferSize = 256
)

// Client is one WebSocket connection.
//
// send is never closed: the hub closes done instead, so a late send from
// ReadPump or a broadcast cannot panic.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex // guards conn writes
	log       *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, log *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

// close tells WritePump to finish. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// closed reports whether the hub has let go of the client.
func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue queues data without blocking. It reports false when the buffer
// is full; a closed client silently drops data.
func (c *Client) enqueue(data []byte) bool {
	if c.closed() {
		return true
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump reads client frames until the connection fails. It runs on the
// handler goroutine and unregisters the client on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("failed to set read deadline", zap.Error(err))
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("unexpected close", zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.log.Debug("invalid message", zap.Error(err))
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("failed to set read deadline", zap.Error(err))
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	default:
		c.log.Debug("unknown op", zap.String("op", event.Op))
	}
}

// sendEvent queues an event for this client only.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.log.Error("failed to marshal event", zap.Error(err))
		return
	}

	if !c.enqueue(data) {
		c.log.Warn("send buffer full, dropping connection")
		go c.hub.Unregister(c)
	}
}

// WritePump writes queued frames. Once the hub closes the client it sends
// a close frame and returns.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case message := <-c.send:
			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			_ = c.writeMessage(websocket.CloseMessage, nil)
			return
		}
	}
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
