package handler

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed static/index.html
var indexPage string

// Index serves the single-page counter UI. The page talks to /api/counter
// and /api/increment; the "This Session" tally lives only in the browser.
func Index(c echo.Context) error {
	return c.HTML(http.StatusOK, indexPage)
}
