package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

// Keys written by earlier versions of the page. Local lists are folded in
// first so the server list wins on id clashes.
var (
	legacyLocalKeys  = []string{"utd_local_v1", "utd_items", "utd_entries_v7"}
	legacyServerKeys = []string{"utd_server_v1"}
	legacyTitleKey   = "utd_title_v2"
)

// Migrate folds deprecated keys into the stable store and removes them. It
// reports whether anything was found. The stable store keeps precedence over
// every legacy list.
func (s *Store) Migrate(ctx context.Context) (bool, error) {
	l := logging.FromContext(ctx).With("component", "feed.migrate")

	var legacy []Entry
	var found []string
	for _, key := range slices.Concat(legacyLocalKeys, legacyServerKeys) {
		raw, err := s.local.GetItem(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("read %s: %w", key, err)
		}
		found = append(found, key)
		items := decodeLegacy(raw)
		for i := range items {
			items[i].Sync = SyncSynced
			items[i] = backfillUnix(items[i], s.loc)
		}
		legacy = merge(legacy, items)
	}

	titleMoved, err := s.migrateTitle(ctx)
	if err != nil {
		return false, err
	}
	if len(found) == 0 {
		return titleMoved, nil
	}

	if err := s.update(ctx, func(items []Entry) []Entry { return merge(legacy, items) }); err != nil {
		return false, err
	}
	for _, key := range found {
		if err := s.local.RemoveItem(ctx, key); err != nil {
			return true, fmt.Errorf("remove %s: %w", key, err)
		}
	}
	l.Info("legacy_feed_migrated", "keys", found, "entries", len(legacy))
	return true, nil
}

func (s *Store) migrateTitle(ctx context.Context) (bool, error) {
	old, err := s.local.GetItem(ctx, legacyTitleKey)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", legacyTitleKey, err)
	}
	if _, err := s.local.GetItem(ctx, TitleKey); errors.Is(err, storage.ErrNotFound) && strings.TrimSpace(old) != "" {
		if err := s.local.SetItem(ctx, TitleKey, old); err != nil {
			return false, fmt.Errorf("write title: %w", err)
		}
	}
	if err := s.local.RemoveItem(ctx, legacyTitleKey); err != nil {
		return false, fmt.Errorf("remove %s: %w", legacyTitleKey, err)
	}
	return true, nil
}

// decodeLegacy accepts a bare array or a {items: [...]} wrapper. Anything
// else is treated as empty.
func decodeLegacy(raw string) []Entry {
	var items []Entry
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return items
	}
	var wrapped struct {
		Items []Entry `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		return wrapped.Items
	}
	return nil
}
