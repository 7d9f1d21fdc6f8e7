package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// Check probes one dependency
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
	started time.Time
}

// NewHealthHandler creates a handler running checks on readiness probes
func NewHealthHandler(checks map[string]Check, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{checks: checks, timeout: timeout, started: time.Now()}
}

// HealthResponse is the body of both probes
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live reports that the process is serving
func (h *HealthHandler) Live(c *gin.Context) {
	ok(c, HealthResponse{Status: "ok", Uptime: h.uptime()})
}

// Ready runs every check and answers 503 if any fails
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok", Uptime: h.uptime(), Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, dto.OK(resp))
		return
	}
	ok(c, resp)
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.started).Round(time.Second).String()
}
