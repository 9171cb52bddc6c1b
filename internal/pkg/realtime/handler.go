package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler for WebSocket connections
type Handler struct {
	hub      *Hub
	router   *Router
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, router *Router, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(hub.options.AllowedOrigins),
		},
		logger: logger,
	}
}

// originChecker accepts requests without an Origin header (non-browser clients)
// and browser requests from an allowed origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection godoc
// @Summary Open the realtime socket
// @Description Upgrades to a WebSocket. The connection is anonymous until it sends an authenticate event with a token.
// @Tags realtime
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 403 {string} string "Origin not allowed"
// @Router /ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("origin", c.GetHeader("Origin")).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := newClient(h.hub, conn, h.router, h.logger)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	time.AfterFunc(h.hub.options.AuthTimeout, func() {
		if !client.Authenticated() {
			client.logger.Debug().Msg("Authentication timed out")
			client.kick("authentication timeout")
		}
	})

	go client.writePump()
	go client.readPump()

	h.logger.Debug().
		Str("connID", client.id).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
