package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/ref_site/pkg/events"
	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/payments/internal/models"
	"github.com/Skotchmaster/ref_site/services/payments/internal/provider"
)

var (
	ErrValidation    = errors.New("validation")
	ErrMisconfigured = errors.New("misconfigured")
	ErrProvider      = errors.New("payment provider")
)

var (
	ErrEmptyCart      = fmt.Errorf("Cart is empty: %w", ErrValidation)
	ErrMissingPriceID = fmt.Errorf("Missing priceId: %w", ErrValidation)
)

const successPath = "/success.html?session_id={CHECKOUT_SESSION_ID}"
const fallbackCancelPath = "/shop.html"

type PaymentsService struct {
	Provider         provider.SessionCreator
	Events           events.Publisher
	SafeOrigin       string
	ShippingRateID   string
	AllowedCountries []string
}

type metadataItem struct {
	Title    string `json:"title"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int64  `json:"quantity"`
}

// CreateSession validates the cart and asks the provider for a hosted
// checkout page. The returned session URL is where the browser goes next.
func (s *PaymentsService) CreateSession(ctx context.Context, req models.SessionRequest) (*provider.Session, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.PriceID) == "" {
			return nil, ErrMissingPriceID
		}
	}
	if s.SafeOrigin == "" {
		return nil, fmt.Errorf("SAFE_ORIGIN env var is not set: %w", ErrMisconfigured)
	}
	if s.ShippingRateID == "" {
		return nil, fmt.Errorf("SHIPPING_RATE_ID env var is not set: %w", ErrMisconfigured)
	}
	if s.Provider == nil {
		return nil, fmt.Errorf("payment provider is not configured: %w", ErrMisconfigured)
	}

	origin := strings.TrimRight(s.SafeOrigin, "/")
	lines := make([]provider.Line, 0, len(req.Items))
	meta := make([]metadataItem, 0, len(req.Items))
	for _, it := range req.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, provider.Line{PriceID: strings.TrimSpace(it.PriceID), Quantity: qty})
		meta = append(meta, metadataItem{Title: it.Title, Size: it.Size, Color: it.Color, Quantity: qty})
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	countries := s.AllowedCountries
	if len(countries) == 0 {
		countries = []string{"US"}
	}

	params := provider.SessionParams{
		Lines:            lines,
		ShippingRateID:   s.ShippingRateID,
		AllowedCountries: countries,
		Metadata:         map[string]string{"items": string(metaJSON)},
		SuccessURL:       origin + successPath,
		CancelURL:        SafeCancelURL(origin, req.CancelURL),
	}

	sess, err := s.Provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	if s.Events != nil {
		ev := map[string]any{
			"type":      "session_created",
			"sessionID": sess.ID,
			"lines":     len(lines),
			"cancelURL": params.CancelURL,
		}
		if err := s.Events.Publish(ctx, events.TopicCheckout, sess.ID, ev); err != nil {
			logging.FromContext(ctx).Warn("checkout_event_publish_failed", "error", err)
		}
	}

	return sess, nil
}

// SafeCancelURL keeps the caller's cancel URL only when it points back into
// the site's own origin; anything else falls back to the shop page.
func SafeCancelURL(origin, cancel string) string {
	origin = strings.TrimRight(origin, "/")
	if cancel == origin || strings.HasPrefix(cancel, origin+"/") || strings.HasPrefix(cancel, origin+"?") {
		return cancel
	}
	return origin + fallbackCancelPath
}
