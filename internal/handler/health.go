package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/redis-counter/internal/model"
)

// Health pings Redis and reports the outcome. The status code is 200 either
// way; monitors must read the "status" field.
func (h *CounterHandler) Health(c echo.Context) error {
	if err := h.Svc.Ping(c.Request().Context()); err != nil { // liveness check against the shared client
		log.Warn().Err(err).Msg("health: redis ping failed")
		return c.JSON(http.StatusOK, model.HealthResponse{
			Status: model.StatusUnhealthy,
			Redis:  model.RedisDisconnected,
			Error:  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, model.HealthResponse{Status: model.StatusHealthy, Redis: model.RedisConnected})
}
