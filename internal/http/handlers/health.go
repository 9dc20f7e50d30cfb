package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/reveal-be/internal/http/respond"
)

// HealthHandler returns uptime and whether the database answers.
type HealthHandler struct {
	startedAt time.Time
	ping      func(ctx context.Context) error
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, ping: ping}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.ping(ctx); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	respond.JSON(w, code, map[string]string{
		"status": status,
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
