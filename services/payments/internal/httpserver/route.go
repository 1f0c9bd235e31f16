package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	PaymentsHandler *PaymentsHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// Older storefront builds post to the function-style paths.
	for _, p := range []string{"/api/v1/payments", "/api/payments", "/.netlify/functions/payments"} {
		e.Any(p, d.PaymentsHandler.Checkout)
	}
}
