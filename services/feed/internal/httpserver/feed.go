package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/feed/internal/service"
	"github.com/Skotchmaster/ref_site/services/feed/internal/transport"
	"github.com/Skotchmaster/ref_site/services/feed/internal/util"
	"github.com/labstack/echo/v4"
)

type FeedHTTP struct {
	Svc *service.FeedService
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{"ok": false, "error": msg})
}

func (h *FeedHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feed.list")

	limit := util.ParseIntDefault(c.QueryParam("limit"), service.DefaultLimit)
	posts, err := h.Svc.List(ctx, limit)
	if err != nil {
		l.Error("list_posts_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "cannot list posts")
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true, "posts": transport.FromPosts(posts)})
}

// Action dispatches the single POST endpoint on the "action" field.
func (h *FeedHTTP) Action(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.ActionRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("feed_action_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	l := logging.FromContext(ctx).With("handler", "feed.action", "action", req.Action)

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "post":
		post, err := h.Svc.Create(ctx, req.Token, req.Title, req.Body)
		if err != nil {
			return h.mapError(c, l, err)
		}
		l.Info("post_created", "id", post.ID)
		return c.JSON(http.StatusCreated, map[string]any{"ok": true, "post": transport.FromPost(*post)})

	case "edit":
		post, err := h.Svc.Edit(ctx, req.Token, req.ID, req.Body)
		if err != nil {
			return h.mapError(c, l, err)
		}
		l.Info("post_edited", "id", post.ID)
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "post": transport.FromPost(*post)})

	case "delete":
		if err := h.Svc.Delete(ctx, req.Token, req.ID); err != nil {
			return h.mapError(c, l, err)
		}
		l.Info("post_deleted", "id", req.ID)
		return c.JSON(http.StatusOK, map[string]any{"ok": true})

	case "verify":
		token, exp, err := h.Svc.Verify(req.Password)
		if err != nil {
			return h.mapError(c, l, err)
		}
		l.Info("owner_verified")
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "token": token, "expiresAt": exp})

	default:
		l.Warn("feed_action_error", "status", 400, "error", "unknown action")
		return fail(c, http.StatusBadRequest, "unknown action")
	}
}

func (h *FeedHTTP) mapError(c echo.Context, l *slog.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn("feed_action_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrUnauthorized):
		l.Warn("feed_action_error", "status", 401)
		return fail(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrNotFound):
		l.Warn("feed_action_error", "status", 404, "error", err)
		return fail(c, http.StatusNotFound, "post not found")
	default:
		l.Error("feed_action_error", "status", 500, "error", err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
}
