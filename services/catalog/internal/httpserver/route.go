package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	catalog := e.Group("/api/v1/catalog")
	catalog.GET("/search", d.CatalogHandler.Search)

	products := catalog.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/by-file/:file", d.CatalogHandler.GetProductByFile)
	products.GET("/:id", d.CatalogHandler.GetProduct)
}
