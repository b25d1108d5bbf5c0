package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/telnet-console/server/internal/ws"
)

// WebSocketHandler exposes the console over a WebSocket endpoint.
type WebSocketHandler struct {
	ws *ws.Handler
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{ws: wsHandler}
}

// RegisterRoutes registers the console WebSocket route.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/console", h.Connect)
}

// Connect upgrades the request and serves a console session over the socket.
// The handler blocks until the session ends.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	if err := h.ws.HandleConnection(c.Writer, c.Request); err != nil {
		// Upgrade failures already wrote an HTTP error response.
		c.Abort()
	}
}
