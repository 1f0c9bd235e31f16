package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/payments/internal/models"
	"github.com/Skotchmaster/ref_site/services/payments/internal/service"
	"github.com/labstack/echo/v4"
)

const maxBody = 1 << 20

type PaymentsHTTP struct {
	Svc *service.PaymentsService
}

type errorBody struct {
	Error string `json:"error"`
}

// Checkout serves both entry points: GET ?payload= redirects the browser
// straight to the hosted page (303), POST answers {url} for fetch callers.
func (h *PaymentsHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payments.checkout")

	var (
		req models.SessionRequest
		err error
	)

	switch c.Request().Method {
	case http.MethodGet:
		payload := c.QueryParam("payload")
		if payload == "" {
			l.Warn("checkout_error", "status", 400, "error", "missing payload")
			return c.JSON(http.StatusBadRequest, errorBody{Error: "Missing payload"})
		}
		req, err = models.DecodePayload(payload)
	case http.MethodPost:
		var raw []byte
		raw, err = io.ReadAll(io.LimitReader(c.Request().Body, maxBody))
		if err == nil {
			req, err = models.DecodeSessionRequest(raw)
		}
	case http.MethodOptions:
		c.Response().Header().Set("Allow", "GET, POST, OPTIONS")
		return c.NoContent(http.StatusNoContent)
	default:
		c.Response().Header().Set("Allow", "GET, POST")
		l.Warn("checkout_error", "status", 405, "method", c.Request().Method)
		return c.JSON(http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed"})
	}
	if err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}

	sess, err := h.Svc.CreateSession(ctx, req)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= 500 {
			l.Error("checkout_error", "status", status, "error", err)
		} else {
			l.Warn("checkout_error", "status", status, "error", err)
		}
		return c.JSON(status, errorBody{Error: msg})
	}

	l.Info("checkout session created", "session_id", sess.ID)
	if c.Request().Method == http.MethodGet {
		return c.Redirect(http.StatusSeeOther, sess.URL)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": sess.URL})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest, "Cart is empty"
	case errors.Is(err, service.ErrMissingPriceID):
		return http.StatusBadRequest, "Missing priceId on one or more items"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrMisconfigured):
		msg, _, _ := strings.Cut(err.Error(), ":")
		return http.StatusInternalServerError, msg
	default:
		return http.StatusInternalServerError, "Error creating checkout session"
	}
}
