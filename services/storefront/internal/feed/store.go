package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ref_site/pkg/logging"
	"github.com/Skotchmaster/ref_site/pkg/notify"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/feedclient"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/guard"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

const (
	StorageKey   = "utd_entries"
	DraftKey     = "utd_draft_v1"
	TitleKey     = "utd_title_v1"
	DefaultTitle = "USELESS THOUGHT OF THE DAY"

	storeVersion = 1
	syncLimit    = 100
)

var (
	ErrPostInProgress = errors.New("feed: a post is already in progress")
	ErrNotOwner       = errors.New("feed: owner token required")
	ErrNotFound       = errors.New("feed: entry not found")
	ErrEmptyText      = errors.New("feed: text is empty")
)

// Remote is the comment feed service as seen from the storefront.
type Remote interface {
	List(ctx context.Context, limit int) ([]feedclient.Post, error)
	Post(ctx context.Context, token, body string) (*feedclient.Post, error)
	Edit(ctx context.Context, token, id, body string) error
	Delete(ctx context.Context, token, id string) error
}

// TokenSource yields the owner token, or "" when the visitor is not the
// owner.
type TokenSource interface {
	Token(ctx context.Context) string
}

func Topic(sessionID string) string {
	return "feed.changed:" + sessionID
}

type Options struct {
	Local     storage.Storage
	Remote    Remote
	Owner     TokenSource
	Bus       notify.Bus
	Guards    *guard.Set
	SessionID string
	// Location stamps display strings; defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
}

type Store struct {
	local     storage.Storage
	remote    Remote
	owner     TokenSource
	bus       notify.Bus
	guards    *guard.Set
	sessionID string
	topic     string
	loc       *time.Location
	now       func() time.Time
}

func NewStore(o Options) *Store {
	s := &Store{
		local:     o.Local,
		remote:    o.Remote,
		owner:     o.Owner,
		bus:       o.Bus,
		guards:    o.Guards,
		sessionID: o.SessionID,
		topic:     Topic(o.SessionID),
		loc:       o.Location,
		now:       o.Now,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.guards == nil {
		s.guards = guard.NewSet()
	}
	return s
}

type document struct {
	Version int     `json:"version"`
	Items   []Entry `json:"items"`
}

// LoadLocal returns the stored entries in stored order. Missing or
// unparseable data is an empty list.
func (s *Store) LoadLocal(ctx context.Context) []Entry {
	raw, err := s.local.GetItem(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.FromContext(ctx).Warn("feed_read_failed", "error", err)
		}
		return []Entry{}
	}
	return decode(raw)
}

func decode(raw string) []Entry {
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc.Items == nil {
		return []Entry{}
	}
	return doc.Items
}

func (s *Store) SaveLocal(ctx context.Context, items []Entry) error {
	return s.update(ctx, func([]Entry) []Entry { return items })
}

// update is the only writer of the entry list. fn runs inside one atomic
// storage update and may be called again on conflict, so it must only
// derive its result from the list it is given.
func (s *Store) update(ctx context.Context, fn func([]Entry) []Entry) error {
	var next []Entry
	err := s.local.Update(ctx, StorageKey, func(cur string, found bool) (string, error) {
		items := []Entry{}
		if found {
			items = decode(cur)
		}
		next = fn(items)
		if next == nil {
			next = []Entry{}
		}
		data, err := json.Marshal(document{Version: storeVersion, Items: next})
		if err != nil {
			return "", fmt.Errorf("encode feed: %w", err)
		}
		return string(data), nil
	})
	if err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	if s.bus != nil {
		s.bus.Publish(s.topic, sorted(next))
	}
	return nil
}

// Entries is the feed as shown: newest first.
func (s *Store) Entries(ctx context.Context) []Entry {
	return sorted(s.LoadLocal(ctx))
}

func sorted(items []Entry) []Entry {
	out := make([]Entry, len(items))
	copy(out, items)
	sortNewestFirst(out)
	return out
}

// PostLocalThenSync shows the entry immediately and then sends it. A failed
// send keeps the entry, marked failed, for RetryPending; the caller only
// sees storage errors and ErrPostInProgress.
func (s *Store) PostLocalThenSync(ctx context.Context, text string) (Entry, error) {
	l := logging.FromContext(ctx).With("component", "feed.post")

	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, nil
	}
	if !s.guards.TryAcquire(ctx, s.sessionID) {
		return Entry{}, ErrPostInProgress
	}
	defer s.guards.Release(ctx, s.sessionID)

	e := Entry{ID: uuid.NewString(), T: text, Sync: SyncPending}
	e.TS, e.TSUnix = stamp(s.now(), s.loc)
	if err := s.update(ctx, func(items []Entry) []Entry { return append(items, e) }); err != nil {
		return Entry{}, err
	}
	if err := s.ClearDraft(ctx); err != nil {
		l.Warn("draft_clear_failed", "error", err)
	}

	sent, err := s.send(ctx, e)
	if err != nil {
		l.Warn("post_failed", "id", e.ID, "error", err)
		return sent, nil
	}
	if err := s.SyncFromServer(ctx); err != nil {
		l.Warn("sync_after_post_failed", "error", err)
	}
	return sent, nil
}

// send posts one local-only entry and records the outcome locally. On
// success the optimistic entry is replaced by the server's copy.
func (s *Store) send(ctx context.Context, e Entry) (Entry, error) {
	post, err := s.remote.Post(ctx, s.token(ctx), e.T)
	if err != nil {
		e.Sync = SyncFailed
		if uerr := s.replace(ctx, e.ID, e); uerr != nil {
			return e, errors.Join(err, uerr)
		}
		return e, err
	}
	next := e
	next.Sync = SyncSynced
	if post != nil && post.ID != "" {
		next = fromRemote(*post, s.loc)
	}
	return next, s.replace(ctx, e.ID, next)
}

func (s *Store) replace(ctx context.Context, id string, e Entry) error {
	return s.update(ctx, func(items []Entry) []Entry {
		out := items[:0]
		for _, it := range items {
			switch {
			case it.ID == id:
				out = append(out, e)
			case it.ID == e.ID:
				// the server copy already arrived through a sync
			default:
				out = append(out, it)
			}
		}
		return out
	})
}

// SyncFromServer merges the latest remote posts into the local list. Remote
// entries win; entries the server does not know are kept.
func (s *Store) SyncFromServer(ctx context.Context) error {
	posts, err := s.remote.List(ctx, syncLimit)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	remote := make([]Entry, 0, len(posts))
	for _, p := range posts {
		remote = append(remote, fromRemote(p, s.loc))
	}
	return s.update(ctx, func(items []Entry) []Entry { return merge(items, remote) })
}

// RetryPending re-sends every pending or failed entry once and reports how
// many went through.
func (s *Store) RetryPending(ctx context.Context) (int, error) {
	l := logging.FromContext(ctx).With("component", "feed.retry")

	if !s.guards.TryAcquire(ctx, s.sessionID) {
		return 0, ErrPostInProgress
	}
	defer s.guards.Release(ctx, s.sessionID)

	sent := 0
	for _, e := range s.LoadLocal(ctx) {
		if !e.LocalOnly() {
			continue
		}
		if _, err := s.send(ctx, e); err != nil {
			l.Warn("retry_failed", "id", e.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// Edit rewrites an entry locally and then on the server. Server failures
// are logged; the local edit stays.
func (s *Store) Edit(ctx context.Context, id, body string) (Entry, error) {
	token := s.token(ctx)
	if token == "" {
		return Entry{}, ErrNotOwner
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Entry{}, ErrEmptyText
	}

	var edited Entry
	found := false
	err := s.update(ctx, func(items []Entry) []Entry {
		found = false
		for i := range items {
			if items[i].ID == id {
				items[i].T = body
				items[i].Edited = true
				edited, found = items[i], true
			}
		}
		return items
	})
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, ErrNotFound
	}

	if !edited.LocalOnly() {
		if err := s.remote.Edit(ctx, token, id, body); err != nil {
			logging.FromContext(ctx).Warn("remote_edit_failed", "id", id, "error", err)
		}
	}
	return edited, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	token := s.token(ctx)
	if token == "" {
		return ErrNotOwner
	}

	var removed *Entry
	err := s.update(ctx, func(items []Entry) []Entry {
		removed = nil
		out := items[:0]
		for _, it := range items {
			if it.ID == id {
				removed = &it
				continue
			}
			out = append(out, it)
		}
		return out
	})
	if err != nil {
		return err
	}
	if removed == nil {
		return ErrNotFound
	}

	if !removed.LocalOnly() {
		if err := s.remote.Delete(ctx, token, id); err != nil {
			logging.FromContext(ctx).Warn("remote_delete_failed", "id", id, "error", err)
		}
	}
	return nil
}

func (s *Store) token(ctx context.Context) string {
	if s.owner == nil {
		return ""
	}
	return s.owner.Token(ctx)
}

func (s *Store) Draft(ctx context.Context) string {
	v, err := s.local.GetItem(ctx, DraftKey)
	if err != nil {
		return ""
	}
	return v
}

func (s *Store) SaveDraft(ctx context.Context, text string) error {
	if text == "" {
		return s.ClearDraft(ctx)
	}
	return s.local.SetItem(ctx, DraftKey, text)
}

func (s *Store) ClearDraft(ctx context.Context) error {
	return s.local.RemoveItem(ctx, DraftKey)
}

func (s *Store) Title(ctx context.Context) string {
	v, err := s.local.GetItem(ctx, TitleKey)
	if err != nil || strings.TrimSpace(v) == "" {
		return DefaultTitle
	}
	return v
}

// SetTitle overrides the heading; a blank title restores the default.
func (s *Store) SetTitle(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return s.local.RemoveItem(ctx, TitleKey)
	}
	return s.local.SetItem(ctx, TitleKey, title)
}

func (s *Store) Subscribe(fn func(entries []Entry)) (unsubscribe func()) {
	if s.bus == nil {
		return func() {}
	}
	return s.bus.Subscribe(s.topic, func(payload any) {
		if entries, ok := payload.([]Entry); ok {
			fn(entries)
		}
	})
}
