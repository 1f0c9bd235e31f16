package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type Line struct {
	PriceID  string
	Quantity int64
}

type SessionParams struct {
	Lines            []Line
	ShippingRateID   string
	AllowedCountries []string
	Metadata         map[string]string
	SuccessURL       string
	CancelURL        string
}

type Session struct {
	ID  string
	URL string
}

// SessionCreator creates a hosted checkout session at the payment provider.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error)
}

type Stripe struct {
	api *client.API
}

func NewStripe(secretKey string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.AllowedCountries),
		},
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripe.String(p.ShippingRateID)},
		},
	}
	params.Context = ctx

	for _, l := range p.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(l.PriceID),
			Quantity: stripe.Int64(l.Quantity),
		})
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("stripe %s: %s", serr.Type, serr.Msg)
		}
		return nil, fmt.Errorf("stripe: %w", err)
	}
	if sess.URL == "" {
		return nil, errors.New("stripe: session has no url")
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}
