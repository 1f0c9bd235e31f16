package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/feed"
)

type textRequest struct {
	Text string `json:"text"`
}

type editRequest struct {
	Body string `json:"body"`
}

type titleRequest struct {
	Title string `json:"title"`
}

func (h *StorefrontHTTP) FeedView(c echo.Context) error {
	ctx := c.Request().Context()
	store := h.feedStore(c)
	return c.JSON(http.StatusOK, map[string]any{
		"entries": store.Entries(ctx),
		"owner":   h.owner(c).IsOwner(ctx),
		"title":   store.Title(ctx),
		"draft":   store.Draft(ctx),
	})
}

func (h *StorefrontHTTP) FeedPost(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feed.post")

	var req textRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}

	store := h.feedStore(c)
	e, err := store.PostLocalThenSync(ctx, req.Text)
	if err != nil {
		return feedError(c, l, err)
	}
	resp := map[string]any{"entries": store.Entries(ctx)}
	if e.ID == "" {
		return c.JSON(http.StatusOK, resp)
	}
	resp["entry"] = e
	return c.JSON(http.StatusCreated, resp)
}

// FeedSync re-sends the outbox, then pulls the server list. A failed pull
// still answers with the local entries; while a post of the session is in
// flight nothing is sent or pulled.
func (h *StorefrontHTTP) FeedSync(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feed.sync")

	store := h.feedStore(c)
	sent, err := store.RetryPending(ctx)
	synced := false
	switch {
	case errors.Is(err, feed.ErrPostInProgress):
		l.Info("sync_skipped", "reason", "post_in_progress")
	case err != nil:
		l.Warn("retry_pending_error", "error", err)
		fallthrough
	default:
		if err := store.SyncFromServer(ctx); err != nil {
			l.Warn("sync_error", "error", err)
		} else {
			synced = true
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"sent":    sent,
		"synced":  synced,
		"entries": store.Entries(ctx),
	})
}

func (h *StorefrontHTTP) FeedEdit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feed.edit")

	var req editRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	e, err := h.feedStore(c).Edit(ctx, c.Param("id"), req.Body)
	if err != nil {
		return feedError(c, l, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"entry": e})
}

func (h *StorefrontHTTP) FeedDelete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feed.delete")

	if err := h.feedStore(c).Delete(ctx, c.Param("id")); err != nil {
		return feedError(c, l, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StorefrontHTTP) FeedDraft(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feed.draft")

	var req textRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	if err := h.feedStore(c).SaveDraft(ctx, req.Text); err != nil {
		return feedError(c, l, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StorefrontHTTP) FeedTitle(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feed.title")

	var req titleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bind_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("invalid body"))
	}
	store := h.feedStore(c)
	if err := store.SetTitle(ctx, req.Title); err != nil {
		return feedError(c, l, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"title": store.Title(ctx)})
}

func feedError(c echo.Context, l *slog.Logger, err error) error {
	switch {
	case errors.Is(err, feed.ErrNotOwner):
		l.Warn("feed_error", "status", 401, "error", err)
		return c.JSON(http.StatusUnauthorized, errorBody("owner unlock required"))
	case errors.Is(err, feed.ErrNotFound):
		l.Warn("feed_error", "status", 404, "error", err)
		return c.JSON(http.StatusNotFound, errorBody("entry not found"))
	case errors.Is(err, feed.ErrEmptyText):
		l.Warn("feed_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("text is required"))
	case errors.Is(err, feed.ErrPostInProgress):
		l.Warn("feed_error", "status", 409, "error", err)
		return c.JSON(http.StatusConflict, errorBody("a post is already being sent"))
	default:
		l.Error("feed_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
}
