package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vedran77/conversa/internal/event"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection. It is the handle stored
// in the presence index and in rooms.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, bufSize int) *Client {
	if bufSize <= 0 {
		bufSize = sendBufSize
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, bufSize),
		done:   make(chan struct{}),
	}
}

func (c *Client) UserID() uuid.UUID { return c.userID }

// Send queues data for the write pump. It never blocks: a closed client or
// a full buffer makes it return false.
func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close stops the write pump. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// ReadPump reads events until the connection fails and hands each one to
// the hub in order. It disconnects the client on return.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var evt event.Event
		if err := wsjson.Read(ctx, c.conn, &evt); err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.hub.logger.Debug("ws: client disconnected", "user_id", c.userID)
			} else {
				c.hub.logger.Debug("ws: read error", "user_id", c.userID, "error", err)
			}
			return
		}

		c.hub.HandleEvent(ctx, c, &evt)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug("ws: write error", "user_id", c.userID, "error", err)
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.hub.logger.Debug("ws: ping error", "user_id", c.userID, "error", err)
				return
			}

		case <-c.done:
			return

		case <-ctx.Done():
			return
		}
	}
}
