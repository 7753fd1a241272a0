// Package handler exposes the HTTP handlers of the counter service. Store
// failures never change the status code: handlers answer 200 with an "error"
// field and a fallback value, and callers are expected to inspect the body.
package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/redis-counter/internal/model"
	"github.com/iliyamo/redis-counter/internal/service"
)

// CounterHandler serves the counter endpoints from a CounterService.
type CounterHandler struct {
	Svc *service.CounterService
}

// NewCounterHandler panics on a nil service.
func NewCounterHandler(svc *service.CounterService) *CounterHandler {
	if svc == nil {
		panic("nil service passed to NewCounterHandler")
	}
	return &CounterHandler{Svc: svc}
}

// GetCounter returns {"count": n}, initialising a missing key to 0.
func (h *CounterHandler) GetCounter(c echo.Context) error {
	n, err := h.Svc.Read(c.Request().Context())
	if err != nil {
		log.Warn().Err(err).Msg("read counter failed")
		return c.JSON(http.StatusOK, model.CounterResponse{Error: err.Error(), Count: 0})
	}
	return c.JSON(http.StatusOK, model.CounterResponse{Count: n})
}

// Increment adds one and returns the new value.
func (h *CounterHandler) Increment(c echo.Context) error {
	n, err := h.Svc.Increment(c.Request().Context())
	if err != nil {
		log.Warn().Err(err).Msg("increment counter failed")
		return c.JSON(http.StatusOK, model.CounterResponse{Error: err.Error(), Count: 0})
	}
	return c.JSON(http.StatusOK, model.CounterResponse{Count: n})
}

// Current answers in plain text: "Current number is N".
func (h *CounterHandler) Current(c echo.Context) error {
	n, err := h.Svc.Current(c.Request().Context())
	if err != nil {
		log.Warn().Err(err).Msg("current counter failed")
		return c.String(http.StatusOK, "Error: "+err.Error())
	}
	return c.String(http.StatusOK, fmt.Sprintf("Current number is %d", n))
}

// Reset stores 0. It is a GET route so it can be triggered from a browser.
func (h *CounterHandler) Reset(c echo.Context) error {
	n, err := h.Svc.Reset(c.Request().Context())
	if err != nil {
		log.Warn().Err(err).Msg("reset counter failed")
		return c.JSON(http.StatusOK, model.ResetResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, model.ResetResponse{Message: "Counter reset successfully", Count: &n})
}
