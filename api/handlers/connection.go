// Package handlers provides the admin HTTP API.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/telnet-console/server/internal/model"
	"github.com/telnet-console/server/internal/repository"
	"github.com/telnet-console/server/internal/session"
)

// ConnectionHandler serves connection records and live session output.
type ConnectionHandler struct {
	repo     *repository.ConnectionRepository
	sessions *session.Handler
}

// NewConnectionHandler creates a ConnectionHandler.
func NewConnectionHandler(repo *repository.ConnectionRepository, sessions *session.Handler) *ConnectionHandler {
	return &ConnectionHandler{repo: repo, sessions: sessions}
}

// ConnectionResponse represents a connection in API responses.
type ConnectionResponse struct {
	ID             string `json:"id"`
	RemoteAddr     string `json:"remoteAddr"`
	Transport      string `json:"transport"`
	Status         string `json:"status"`
	Commands       int    `json:"commands"`
	TranscriptPath string `json:"transcriptPath,omitempty"`
	Duration       string `json:"duration"`
	StartedAt      string `json:"startedAt"`
	EndedAt        string `json:"endedAt,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toConnectionResponse(c *model.Connection) *ConnectionResponse {
	resp := &ConnectionResponse{
		ID:             c.ID,
		RemoteAddr:     c.RemoteAddr,
		Transport:      string(c.Transport),
		Status:         string(c.Status),
		Commands:       c.Commands,
		TranscriptPath: c.TranscriptPath,
		Duration:       c.Duration().Round(time.Second).String(),
		StartedAt:      c.StartedAt.Format(time.RFC3339),
	}
	if c.EndedAt != nil {
		resp.EndedAt = c.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// RegisterRoutes registers connection routes on the router group.
func (h *ConnectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/connections", h.List)
	rg.GET("/connections/:id", h.Get)
	rg.GET("/connections/:id/output", h.Output)
}

// List returns all connection records, newest first.
func (h *ConnectionHandler) List(c *gin.Context) {
	conns, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := make([]*ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		resp = append(resp, toConnectionResponse(conn))
	}
	c.JSON(http.StatusOK, gin.H{"connections": resp, "live": h.sessions.LiveCount()})
}

// Get returns one connection record.
func (h *ConnectionHandler) Get(c *gin.Context) {
	conn, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, model.ErrConnectionNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toConnectionResponse(conn))
}

// Output returns the recent output bytes of a live session.
func (h *ConnectionHandler) Output(c *gin.Context) {
	data, ok := h.sessions.Peek(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session is not live"})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}
