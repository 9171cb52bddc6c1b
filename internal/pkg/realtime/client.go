package realtime

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id  string
	hub *Hub

	// The WebSocket connection
	conn *websocket.Conn

	// Buffered channel of outbound frames, closed by the hub
	send chan []byte

	// Zero until the connection authenticates
	userID atomic.Int64

	// Rooms this client is in, guarded by hub.mu
	rooms map[string]struct{}

	router *Router
	logger zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, router *Router, logger zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.options.SendBuffer),
		rooms:  make(map[string]struct{}),
		router: router,
		logger: logger.With().Str("connID", id).Logger(),
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// UserID returns the authenticated user, or 0
func (c *Client) UserID() int64 {
	return c.userID.Load()
}

// Authenticated reports whether the connection is bound to a user
func (c *Client) Authenticated() bool {
	return c.UserID() != 0
}

func (c *Client) remoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// kick sends a final error frame and disconnects
func (c *Client) kick(message string) {
	if err := c.hub.SendTo(c, EventError, errorPayload{Message: message}); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to queue error frame")
	}
	c.hub.Unregister(c)
}

// readPump pumps frames from the websocket connection to the router
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.options.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug().Int64("userID", c.UserID()).Msg("WebSocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Int64("userID", c.UserID()).Msg("Unexpected WebSocket close")
			} else {
				c.logger.Debug().Err(err).Int64("userID", c.UserID()).Msg("WebSocket read error")
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil || frame.Event == "" {
			c.logger.Debug().Err(err).Msg("Malformed frame")
			c.hub.SendTo(c, EventError, errorPayload{Message: "malformed frame"})
			continue
		}

		metrics.SocketEvents.WithLabelValues(frame.Event, "in").Inc()
		c.router.Handle(c, frame)
	}
}

// writePump pumps frames from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
