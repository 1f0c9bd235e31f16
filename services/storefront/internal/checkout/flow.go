// Package checkout is the CONTACT -> SHIPPING -> PAYMENT accordion with
// exactly one open section.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/cart"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/guard"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

type PaymentSessions interface {
	CreateSession(ctx context.Context, items []cart.LineItem, cancelURL string) (string, error)
}

type Flow struct {
	storage   storage.Storage
	cart      *cart.Store
	payments  PaymentSessions
	guards    *guard.Set
	sessionID string
}

func NewFlow(s storage.Storage, c *cart.Store, p PaymentSessions, g *guard.Set, sessionID string) *Flow {
	return &Flow{storage: s, cart: c, payments: p, guards: g, sessionID: sessionID}
}

type State struct {
	Step Step `json:"step"`
	Info Info `json:"info"`
}

func (f *Flow) State(ctx context.Context) State {
	return State{Step: f.Step(ctx), Info: f.Info(ctx)}
}

// Step is the open section; CONTACT when nothing valid is stored.
func (f *Flow) Step(ctx context.Context) Step {
	raw, err := f.storage.GetItem(ctx, StepKey)
	if err != nil || !Step(raw).Valid() {
		return StepContact
	}
	return Step(raw)
}

func (f *Flow) setStep(ctx context.Context, s Step) error {
	if err := f.storage.SetItem(ctx, StepKey, string(s)); err != nil {
		return fmt.Errorf("save checkout step: %w", err)
	}
	return nil
}

func (f *Flow) Info(ctx context.Context) Info {
	raw, err := f.storage.GetItem(ctx, InfoKey)
	if err != nil {
		return Info{}
	}
	var info Info
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return Info{}
	}
	return info
}

func (f *Flow) saveInfo(ctx context.Context, info Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if err := f.storage.SetItem(ctx, InfoKey, string(data)); err != nil {
		return fmt.Errorf("save checkout info: %w", err)
	}
	return nil
}

// SubmitContact keeps the typed email either way; only a valid one moves the
// accordion to SHIPPING.
func (f *Flow) SubmitContact(ctx context.Context, email string) (Step, error) {
	info := f.Info(ctx)
	info.Email = strings.TrimSpace(email)
	if err := f.saveInfo(ctx, info); err != nil {
		return f.Step(ctx), err
	}
	if !ValidateEmail(info.Email) {
		return f.Step(ctx), &ValidationError{Section: StepContact, Message: msgInvalidEmail}
	}
	return StepShipping, f.setStep(ctx, StepShipping)
}

func (f *Flow) SubmitShipping(ctx context.Context, addr Address) (Step, error) {
	info := f.Info(ctx)
	info.Shipping = addr.trimmed()
	if err := f.saveInfo(ctx, info); err != nil {
		return f.Step(ctx), err
	}
	if !ShippingComplete(info.Shipping) {
		return f.Step(ctx), &ValidationError{Section: StepShipping, Message: msgShippingRequired}
	}
	return StepPayment, f.setStep(ctx, StepPayment)
}

// Open moves backwards freely. Moving forwards needs every earlier section
// to validate; otherwise the first invalid section opens instead.
func (f *Flow) Open(ctx context.Context, target Step) (Step, error) {
	if !target.Valid() {
		return f.Step(ctx), fmt.Errorf("%w: %q", ErrUnknownStep, target)
	}
	if target.index() > f.Step(ctx).index() {
		if verr := f.firstInvalid(f.Info(ctx), target); verr != nil {
			if err := f.setStep(ctx, verr.Section); err != nil {
				return verr.Section, err
			}
			return verr.Section, verr
		}
	}
	return target, f.setStep(ctx, target)
}

func (f *Flow) firstInvalid(info Info, before Step) *ValidationError {
	if before.index() > StepContact.index() && !ValidateEmail(info.Email) {
		return &ValidationError{Section: StepContact, Message: msgInvalidEmail}
	}
	if before.index() > StepShipping.index() && !ShippingComplete(info.Shipping) {
		return &ValidationError{Section: StepShipping, Message: msgShippingRequired}
	}
	return nil
}

// Finalize re-validates everything, then asks the payment service for a
// hosted checkout URL. Validation failures open the offending section and
// keep what was entered. Only one finalize per session runs at a time.
func (f *Flow) Finalize(ctx context.Context, cancelURL string) (string, error) {
	l := logging.FromContext(ctx).With("component", "checkout.finalize")

	items := f.cart.ReadCart(ctx)
	if len(items) == 0 {
		return "", f.fail(ctx, &ValidationError{Section: StepPayment, Message: msgEmptyBag})
	}
	for _, it := range items {
		if strings.TrimSpace(it.PriceID) == "" {
			return "", f.fail(ctx, &ValidationError{Section: StepPayment, Message: msgMissingPriceID})
		}
	}

	info := f.Info(ctx)
	if verr := f.firstInvalid(info, StepPayment); verr != nil {
		return "", f.fail(ctx, verr)
	}
	info.Email = strings.TrimSpace(info.Email)
	info.Shipping = info.Shipping.trimmed()
	if err := f.saveInfo(ctx, info); err != nil {
		return "", err
	}

	if !f.guards.TryAcquire(ctx, f.sessionID) {
		return "", ErrSubmitInProgress
	}
	defer f.guards.Release(ctx, f.sessionID)

	url, err := f.payments.CreateSession(ctx, items, cancelURL)
	if err != nil {
		l.Warn("payment_session_failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	return url, nil
}

func (f *Flow) fail(ctx context.Context, verr *ValidationError) error {
	if err := f.setStep(ctx, verr.Section); err != nil {
		return errors.Join(verr, err)
	}
	return verr
}
