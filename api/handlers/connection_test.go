package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/telnet-console/server/internal/command"
	"github.com/telnet-console/server/internal/db"
	"github.com/telnet-console/server/internal/logging"
	"github.com/telnet-console/server/internal/model"
	"github.com/telnet-console/server/internal/registry"
	"github.com/telnet-console/server/internal/repository"
	"github.com/telnet-console/server/internal/session"
)

func setupRouter(t *testing.T) (*gin.Engine, *repository.ConnectionRepository) {
	t.Helper()

	database, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := repository.NewConnectionRepository(database)
	sessions := session.NewHandler(registry.New(), repo, command.NewTable(), logging.NewNop(), session.Config{
		LogDir: t.TempDir(),
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewConnectionHandler(repo, sessions).RegisterRoutes(r.Group("/api"))
	return r, repo
}

func TestListConnections(t *testing.T) {
	r, repo := setupRouter(t)

	record := &model.Connection{
		ID:         uuid.New().String(),
		RemoteAddr: "127.0.0.1:50000",
		Transport:  model.TransportTelnet,
		Status:     model.ConnectionStatusActive,
		StartedAt:  time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Connections []ConnectionResponse `json:"connections"`
		Live        int                  `json:"live"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Connections) != 1 || body.Connections[0].ID != record.ID {
		t.Errorf("connections = %+v, want the created record", body.Connections)
	}
	if body.Live != 0 {
		t.Errorf("live = %d, want 0", body.Live)
	}
}

func TestGetConnectionNotFound(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/connections/nope", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestOutputNotLive(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/connections/nope/output", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
