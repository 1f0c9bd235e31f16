package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/bag"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/checkout"
)

type contactRequest struct {
	Email string `json:"email"`
}

type openRequest struct {
	Step checkout.Step `json:"step"`
}

func (h *StorefrontHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	state := h.flow(c).State(ctx)
	return c.JSON(http.StatusOK, map[string]any{
		"step": state.Step,
		"info": state.Info,
		"bag":  bag.RenderStore(ctx, h.cart(c)),
	})
}

func (h *StorefrontHTTP) SubmitContact(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.contact")

	var req contactRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	step, err := h.flow(c).SubmitContact(ctx, req.Email)
	if err != nil {
		return checkoutError(c, l, step, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"step": step})
}

func (h *StorefrontHTTP) SubmitShipping(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.shipping")

	var addr checkout.Address
	if err := c.Bind(&addr); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	step, err := h.flow(c).SubmitShipping(ctx, addr)
	if err != nil {
		return checkoutError(c, l, step, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"step": step})
}

func (h *StorefrontHTTP) OpenSection(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.open")

	var req openRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	step, err := h.flow(c).Open(ctx, req.Step)
	if err != nil {
		return checkoutError(c, l, step, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"step": step})
}

func (h *StorefrontHTTP) Finalize(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.finalize")

	flow := h.flow(c)
	url, err := flow.Finalize(ctx, h.cancelURL(c))
	if err != nil {
		return checkoutError(c, l, flow.Step(ctx), err)
	}
	l.Info("payment_session_created")
	return c.JSON(http.StatusOK, map[string]any{"url": url})
}

func checkoutError(c echo.Context, l *slog.Logger, step checkout.Step, err error) error {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		l.Info("checkout_invalid", "status", 400, "section", verr.Section)
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   verr.Message,
			"section": verr.Section,
			"step":    step,
		})
	case errors.Is(err, checkout.ErrUnknownStep):
		l.Warn("checkout_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("unknown step"))
	case errors.Is(err, checkout.ErrSubmitInProgress):
		l.Warn("checkout_error", "status", 409, "error", err)
		return c.JSON(http.StatusConflict, errorBody("payment is already being prepared"))
	case errors.Is(err, checkout.ErrPaymentUnavailable):
		l.Error("checkout_error", "status", 502, "error", err)
		return c.JSON(http.StatusBadGateway, errorBody("there was a problem creating the payment session. please try again."))
	default:
		l.Error("checkout_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
}
