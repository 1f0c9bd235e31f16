package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	FeedHandler *FeedHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// Served at the root for direct callers and under the gateway prefix.
	for _, p := range []string{"/", "/api/v1/feed-service", "/api/v1/feed-service/"} {
		e.GET(p, d.FeedHandler.List)
		e.POST(p, d.FeedHandler.Action)
	}
}
