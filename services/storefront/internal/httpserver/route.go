package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/services/storefront/internal/session"
)

type Deps struct {
	StorefrontHandler *StorefrontHTTP
	Session           session.Config
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	h := d.StorefrontHandler
	api := e.Group("/api/v1", session.Middleware(d.Session))

	api.GET("/bag", h.Bag)
	api.DELETE("/bag", h.ClearBag)
	api.GET("/bag/events", h.BagEvents)
	api.POST("/bag/items", h.AddItem)
	api.PATCH("/bag/items", h.PatchItem)

	api.GET("/checkout", h.Checkout)
	api.PUT("/checkout/contact", h.SubmitContact)
	api.PUT("/checkout/shipping", h.SubmitShipping)
	api.POST("/checkout/open", h.OpenSection)
	api.POST("/checkout/finalize", h.Finalize)

	api.GET("/feed", h.FeedView)
	api.POST("/feed", h.FeedPost)
	api.POST("/feed/sync", h.FeedSync)
	api.PUT("/feed/draft", h.FeedDraft)
	api.PUT("/feed/title", h.FeedTitle)
	api.PATCH("/feed/:id", h.FeedEdit)
	api.DELETE("/feed/:id", h.FeedDelete)

	api.POST("/owner/unlock", h.Unlock)
	api.POST("/owner/lock", h.Lock)
}
