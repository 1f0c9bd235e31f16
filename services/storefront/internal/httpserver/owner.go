package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/owner"
)

type unlockRequest struct {
	Passphrase string `json:"passphrase"`
}

func (h *StorefrontHTTP) Unlock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "owner.unlock")

	var req unlockRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	if err := h.owner(c).Verify(ctx, req.Passphrase); err != nil {
		if errors.Is(err, owner.ErrIncorrectPassphrase) {
			l.Info("unlock_rejected", "status", 401)
			return c.JSON(http.StatusUnauthorized, errorBody("incorrect passphrase"))
		}
		l.Error("unlock_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
	return c.JSON(http.StatusOK, map[string]any{"owner": true})
}

func (h *StorefrontHTTP) Lock(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.owner(c).Lock(ctx); err != nil {
		logging.FromContext(ctx).Error("lock_error", "handler", "owner.lock", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
	return c.JSON(http.StatusOK, map[string]any{"owner": false})
}
