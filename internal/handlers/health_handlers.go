package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const dbPingTimeout = 2 * time.Second

// DBPinger is the slice of the pgx pool the health checks need.
type DBPinger interface {
	Ping(ctx context.Context) error
}

type HealthHandlers struct {
	db DBPinger
}

func NewHealthHandlers(db DBPinger) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// Health reports process liveness.
func (h *HealthHandlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports readiness to receive traffic. Liveness only; the load
// balancer hits this on every rotation, so no dependency checks here.
func (h *HealthHandlers) Ready(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ready",
	})
}

// Detailed breaks health down per dependency, with a bounded db ping.
func (h *HealthHandlers) Detailed(c echo.Context) error {
	status := "ok"
	components := map[string]interface{}{}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbPingTimeout)
	defer cancel()

	dbStatus := "ok"
	if h.db != nil {
		start := time.Now()
		if err := h.db.Ping(ctx); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
		components["database"] = map[string]interface{}{
			"status":     dbStatus,
			"latency_ms": time.Since(start).Milliseconds(),
		}
	} else {
		components["database"] = map[string]interface{}{"status": "not configured"}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
