package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	pollInterval time.Duration
}

func NewHealthHandler(pollInterval time.Duration) *HealthHandler {
	return &HealthHandler{
		pollInterval: pollInterval,
	}
}

// Health doubles as client bootstrap: it advertises the fallback poll
// interval so clients without a live channel know how often to refresh.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"pollIntervalSecs": int(h.pollInterval.Seconds()),
	})
}
