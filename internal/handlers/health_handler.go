package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker is a dependency that can report its health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse reports the state of the service and its dependencies
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthHandler handles health checks
type HealthHandler struct {
	version string
	checks  map[string]HealthChecker
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. Nil checkers are ignored.
func NewHealthHandler(version string, checks map[string]HealthChecker) *HealthHandler {
	active := make(map[string]HealthChecker, len(checks))
	for name, c := range checks {
		if c != nil {
			active[name] = c
		}
	}
	return &HealthHandler{version: version, checks: active, timeout: 3 * time.Second}
}

// Health reports whether all dependencies are reachable
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Version: h.version, Dependencies: make(map[string]string, len(h.checks))}
	code := http.StatusOK
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			slog.Error("Health check failed", "dependency", name, "error", err)
			resp.Dependencies[name] = "error"
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[name] = "ok"
	}

	respondWithJSON(w, code, resp)
}
