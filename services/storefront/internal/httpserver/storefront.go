package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/pkg/notify"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/cart"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/checkout"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/feed"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/guard"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/owner"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/session"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

// StorefrontHTTP builds the per-visitor stores from the session cookie on
// every request. The guard sets and the bus are shared across requests.
type StorefrontHTTP struct {
	Storage        storage.Factory
	Bus            notify.Bus
	Payments       checkout.PaymentSessions
	Feed           feed.Remote
	Verifier       owner.Verifier
	CheckoutGuards *guard.Set
	FeedGuards     *guard.Set
	SafeOrigin     string
	Location       *time.Location
}

func errorBody(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func (h *StorefrontHTTP) cart(c echo.Context) *cart.Store {
	sid := session.ID(c)
	return cart.NewStore(h.Storage.Local(sid), h.Bus, sid)
}

func (h *StorefrontHTTP) flow(c echo.Context) *checkout.Flow {
	sid := session.ID(c)
	return checkout.NewFlow(h.Storage.Local(sid), h.cart(c), h.Payments, h.CheckoutGuards, sid)
}

func (h *StorefrontHTTP) owner(c echo.Context) *owner.Session {
	return owner.NewSession(h.Storage.Session(session.ID(c)), h.Verifier)
}

// feedStore migrates legacy keys before handing the store out.
func (h *StorefrontHTTP) feedStore(c echo.Context) *feed.Store {
	ctx := c.Request().Context()
	sid := session.ID(c)
	s := feed.NewStore(feed.Options{
		Local:     h.Storage.Local(sid),
		Remote:    h.Feed,
		Owner:     h.owner(c),
		Bus:       h.Bus,
		Guards:    h.FeedGuards,
		SessionID: sid,
		Location:  h.Location,
	})
	if _, err := s.Migrate(ctx); err != nil {
		logging.FromContext(ctx).Warn("feed_migrate_failed", "error", err)
	}
	return s
}

// cancelURL sends the visitor back to the checkout page if they abandon
// the hosted payment page.
func (h *StorefrontHTTP) cancelURL(c echo.Context) string {
	origin := h.SafeOrigin
	if origin == "" {
		origin = c.Scheme() + "://" + c.Request().Host
	}
	return origin + "/checkout.html"
}
