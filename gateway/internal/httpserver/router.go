package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/gateway/internal/middleware"
	"github.com/Skotchmaster/ref_site/pkg/middleware/csrf"
)

type Deps struct {
	CatalogURL    string
	PaymentsURL   string
	FeedURL       string
	StorefrontURL string
	StaticDir     string

	CSRFConfig csrf.Config
	Logger     *slog.Logger
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, m := range middleware.Common(d.Logger) {
		e.Use(m)
	}

	catalogProxy, err := newProxy("catalog", d.CatalogURL)
	if err != nil {
		return err
	}
	paymentsProxy, err := newProxy("payments", d.PaymentsURL)
	if err != nil {
		return err
	}
	feedProxy, err := newProxy("feed", d.FeedURL)
	if err != nil {
		return err
	}
	storefrontProxy, err := newProxy("storefront", d.StorefrontURL)
	if err != nil {
		return err
	}

	// Hosted-checkout navigation is a plain GET and needs no token.
	e.GET("/api/v1/payments", paymentsProxy)
	e.GET("/api/v1/catalog/*", catalogProxy)

	api := e.Group("/api/v1", csrf.Middleware(d.CSRFConfig))
	api.Match([]string{http.MethodPost, http.MethodOptions}, "/payments", paymentsProxy)
	api.Any("/feed-service", feedProxy)
	api.Any("/feed-service/*", feedProxy)
	api.Any("/*", storefrontProxy)

	if d.StaticDir != "" {
		e.Static("/", d.StaticDir)
	}
	return nil
}
