// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	stats   StatsProvider
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(version string, stats StatsProvider) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		stats:   stats,
	}
}

// HandleHealth returns server health status along with record counts
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.stats != nil {
		stats, err := h.stats.Stats(c.Request().Context())
		if err != nil {
			return NewServiceUnavailableError("record store unavailable")
		}
		resp["records"] = stats
	}
	return c.JSON(http.StatusOK, resp)
}
