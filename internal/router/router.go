package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/redis-counter/internal/handler"
	"github.com/iliyamo/redis-counter/internal/middleware"
)

// New returns an Echo instance with the shared middleware stack: panic
// recovery, zerolog request logging and the goccy JSON serializer.
func New(logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	return e
}

// RegisterRoutes maps every endpoint of the counter service. limit guards
// the increment route only; pass a no-op middleware to disable it.
func RegisterRoutes(e *echo.Echo, h *handler.CounterHandler, limit echo.MiddlewareFunc) {
	// The page itself; it calls the two /api routes below from the browser.
	e.GET("/", handler.Index)

	api := e.Group("/api")
	api.GET("/counter", h.GetCounter)
	api.POST("/increment", h.Increment, limit)

	e.GET("/current", h.Current)
	e.GET("/health", h.Health)
	// Reset is a GET so it can be hit from an address bar.
	e.GET("/reset", h.Reset)
}
