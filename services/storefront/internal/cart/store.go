// Package cart is the visitor's persisted bag: an ordered list of line items
// stored as one JSON array under StorageKey.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/pkg/notify"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

const StorageKey = "ref_cart"

// Topic is the notify topic carrying a session's cart changes. The payload
// is the new []LineItem.
func Topic(sessionID string) string {
	return "cart.changed:" + sessionID
}

type Store struct {
	storage storage.Storage
	bus     notify.Bus
	topic   string
}

func NewStore(s storage.Storage, bus notify.Bus, sessionID string) *Store {
	return &Store{storage: s, bus: bus, topic: Topic(sessionID)}
}

// ReadCart never fails: a missing, unreadable or non-array value is an empty
// cart.
func (s *Store) ReadCart(ctx context.Context) []LineItem {
	raw, err := s.storage.GetItem(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.FromContext(ctx).Warn("cart_read_failed", "error", err)
		}
		return []LineItem{}
	}
	return decode(raw)
}

func decode(raw string) []LineItem {
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []LineItem{}
	}
	return items
}

// WriteCart persists the whole sequence and then notifies subscribers.
func (s *Store) WriteCart(ctx context.Context, items []LineItem) error {
	_, err := s.mutate(ctx, func([]LineItem) []LineItem { return items })
	return err
}

// mutate applies fn to the stored cart as one atomic storage update, so
// concurrent requests of a session never overwrite each other. Every write
// goes through here and notifies once it is stored.
func (s *Store) mutate(ctx context.Context, fn func(items []LineItem) []LineItem) ([]LineItem, error) {
	var next []LineItem
	err := s.storage.Update(ctx, StorageKey, func(cur string, found bool) (string, error) {
		items := []LineItem{}
		if found {
			items = decode(cur)
		}
		next = fn(items)
		if next == nil {
			next = []LineItem{}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return "", fmt.Errorf("encode cart: %w", err)
		}
		return string(data), nil
	})
	if err != nil {
		return nil, fmt.Errorf("write cart: %w", err)
	}
	if s.bus != nil {
		snapshot := make([]LineItem, len(next))
		copy(snapshot, next)
		s.bus.Publish(s.topic, snapshot)
	}
	return next, nil
}

// AddOrIncrement merges item into its line, adding item.Quantity (at least
// 1), or appends a new line.
func (s *Store) AddOrIncrement(ctx context.Context, item LineItem) ([]LineItem, error) {
	amount := item.Quantity
	if amount < 1 {
		amount = 1
	}
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		if i := indexOf(items, item); i >= 0 {
			items[i].Quantity += amount
			return items
		}
		line := item
		line.Quantity = amount
		return append(items, line)
	})
}

// SetQuantity sets the line's quantity; qty <= 0 removes the line. Unknown
// lines are left alone.
func (s *Store) SetQuantity(ctx context.Context, item LineItem, qty int) ([]LineItem, error) {
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		return setQuantity(items, item, func(int) int { return qty })
	})
}

// ChangeQuantity is the bag's -/+ control. A stored quantity below 1 counts
// as 1 before the delta is applied.
func (s *Store) ChangeQuantity(ctx context.Context, item LineItem, delta int) ([]LineItem, error) {
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		return setQuantity(items, item, func(cur int) int { return max(cur, 1) + delta })
	})
}

func setQuantity(items []LineItem, item LineItem, qty func(cur int) int) []LineItem {
	i := indexOf(items, item)
	if i < 0 {
		return items
	}
	if n := qty(items[i].Quantity); n > 0 {
		items[i].Quantity = n
		return items
	}
	return append(items[:i], items[i+1:]...)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.WriteCart(ctx, []LineItem{})
}

// Count is the total quantity across lines, shown on the menu badge.
func (s *Store) Count(ctx context.Context) int {
	n := 0
	for _, it := range s.ReadCart(ctx) {
		if it.Quantity > 0 {
			n += it.Quantity
		}
	}
	return n
}

func (s *Store) Subscribe(fn func(items []LineItem)) (unsubscribe func()) {
	if s.bus == nil {
		return func() {}
	}
	return s.bus.Subscribe(s.topic, func(payload any) {
		if items, ok := payload.([]LineItem); ok {
			fn(items)
		}
	})
}
