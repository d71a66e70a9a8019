package handlers

import (
	"net/http"

	"github.com/akinalp/scaffoldr/pkg"
)

// ConnectionCounter reports open WebSocket connections; ws.Hub implements
// it.
type ConnectionCounter interface {
	ConnectionCount() int
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// HealthHandler serves the public health endpoint.
type HealthHandler struct {
	hub ConnectionCounter
}

// NewHealthHandler creates the handler.
func NewHealthHandler(hub ConnectionCounter) *HealthHandler {
	return &HealthHandler{hub: hub}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Connections: h.hub.ConnectionCount(),
	})
}
