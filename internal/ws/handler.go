package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/telnet-console/server/internal/logging"
	"github.com/telnet-console/server/internal/model"
	"github.com/telnet-console/server/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the admin UI has a fixed host.
		return true
	},
}

// Handler upgrades HTTP requests and serves each socket as a session.
type Handler struct {
	sessions *session.Handler
	log      *logging.Logger
}

// NewHandler creates a WebSocket handler backed by the shared session handler.
func NewHandler(sessions *session.Handler, log *logging.Logger) *Handler {
	return &Handler{sessions: sessions, log: log}
}

// HandleConnection upgrades the request and blocks until the session ends.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return err
	}

	// Serve blocks for the lifetime of the session; the registry releases
	// the socket exactly once on any exit path.
	h.sessions.Serve(r.Context(), newStreamConn(conn), conn.RemoteAddr().String(), model.TransportWebSocket)
	return nil
}
