package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/models"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/service"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/transport"
	"github.com/Skotchmaster/ref_site/services/catalog/internal/util"
	"github.com/labstack/echo/v4"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func pageMeta(page, offset, limit int, total int64) map[string]any {
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		l.Warn("get_product_failed", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	product, err := h.Svc.GetProduct(ctx, uint(id))
	return h.productResponse(c, l, product, err)
}

func (h *CatalogHTTP) GetProductByFile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product_by_file")

	product, err := h.Svc.GetProductByFile(ctx, c.Param("file"))
	return h.productResponse(c, l, product, err)
}

func (h *CatalogHTTP) productResponse(c echo.Context, l *slog.Logger, p *models.Product, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn("get_product_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	case errors.Is(err, service.ErrNotFound):
		l.Warn("get_product_failed", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	case err != nil:
		l.Error("get_product_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}
	return c.JSON(http.StatusOK, transport.FromProduct(*p))
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}

	total, items, err := h.Svc.GetProducts(ctx, offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get products")
	}

	l.Info("get_products_success")
	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.FromProducts(items),
		"meta": pageMeta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		l.Error("search_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.FromProducts(items),
		"meta": pageMeta(page, offset, limit, total),
	})
}
