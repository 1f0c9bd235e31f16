package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/bag"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/cart"
)

const sseHeartbeat = 25 * time.Second

type patchItemRequest struct {
	PriceID  string `json:"priceId"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity *int   `json:"quantity"`
	Delta    *int   `json:"delta"`
}

func (h *StorefrontHTTP) Bag(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, bag.RenderStore(ctx, h.cart(c)))
}

func (h *StorefrontHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bag.add")

	var item cart.LineItem
	if err := c.Bind(&item); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}

	items, err := h.cart(c).AddOrIncrement(ctx, item)
	if err != nil {
		l.Error("cart_write_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("cannot update bag"))
	}
	return c.JSON(http.StatusOK, bag.Render(items))
}

// PatchItem sets an absolute quantity or applies a delta to one line.
func (h *StorefrontHTTP) PatchItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bag.patch")

	var req patchItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	line := cart.LineItem{PriceID: req.PriceID, Size: req.Size, Color: req.Color}

	store := h.cart(c)
	var (
		items []cart.LineItem
		err   error
	)
	switch {
	case req.Quantity != nil:
		items, err = store.SetQuantity(ctx, line, *req.Quantity)
	case req.Delta != nil:
		items, err = store.ChangeQuantity(ctx, line, *req.Delta)
	default:
		return c.JSON(http.StatusBadRequest, errorBody("quantity or delta is required"))
	}
	if err != nil {
		l.Error("cart_write_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("cannot update bag"))
	}
	return c.JSON(http.StatusOK, bag.Render(items))
}

func (h *StorefrontHTTP) ClearBag(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.cart(c).Clear(ctx); err != nil {
		logging.FromContext(ctx).Error("cart_write_error", "handler", "bag.clear", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("cannot update bag"))
	}
	return c.JSON(http.StatusOK, bag.Render(nil))
}

// BagEvents streams a fresh render after every cart change of this session.
// Renders that arrive while the client is slow are dropped; the next one
// carries the full state anyway.
func (h *StorefrontHTTP) BagEvents(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bag.events")

	store := h.cart(c)
	updates := make(chan bag.View, 8)
	unsubscribe := store.Subscribe(func(items []cart.LineItem) {
		select {
		case updates <- bag.Render(items):
		default:
		}
	})
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, "bag", bag.RenderStore(ctx, store)); err != nil {
		return nil
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-updates:
			if err := writeEvent(res, "bag", v); err != nil {
				l.Debug("sse_write_failed", "error", err)
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(res *echo.Response, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}
