package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ref_site/pkg/notify"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/feedclient"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
)

var base = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

type fakeRemote struct {
	mu      sync.Mutex
	posts   []feedclient.Post
	nextID  int
	postErr error
	listErr error
	editErr error
	edits   []string
	deletes []string
	tokens  []string
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeRemote) List(_ context.Context, limit int) ([]feedclient.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]feedclient.Post(nil), f.posts...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRemote) Post(_ context.Context, token, body string) (*feedclient.Post, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.postErr != nil {
		return nil, f.postErr
	}
	f.nextID++
	p := feedclient.Post{
		ID:   fmt.Sprintf("srv-%d", f.nextID),
		Body: body,
		TS:   base.Add(time.Duration(f.nextID) * time.Minute).Format(time.RFC3339),
	}
	f.posts = append([]feedclient.Post{p}, f.posts...)
	return &p, nil
}

func (f *fakeRemote) Edit(_ context.Context, _, id, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, id)
	if f.editErr != nil {
		return f.editErr
	}
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].Body = body
			f.posts[i].Edited = true
		}
	}
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

type staticToken string

func (t staticToken) Token(context.Context) string { return string(t) }

func newTestStore(t *testing.T, mem storage.Storage, remote Remote, token string) *Store {
	t.Helper()
	return NewStore(Options{
		Local:     mem,
		Remote:    remote,
		Owner:     staticToken(token),
		Bus:       notify.NewHub(),
		SessionID: "sid",
		Location:  time.UTC,
		Now:       func() time.Time { return base },
	})
}

func TestLoadLocal_MalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	s := newTestStore(t, mem, &fakeRemote{}, "")

	assert.Empty(t, s.LoadLocal(ctx))
	require.NoError(t, mem.SetItem(ctx, StorageKey, "{not json"))
	assert.Empty(t, s.LoadLocal(ctx))
	require.NoError(t, mem.SetItem(ctx, StorageKey, `[{"id":"a"}]`))
	assert.Empty(t, s.LoadLocal(ctx))
}

func TestPostLocalThenSync_Success(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	s := newTestStore(t, storage.NewMemory(), remote, "")
	require.NoError(t, s.SaveDraft(ctx, "half a thought"))

	e, err := s.PostLocalThenSync(ctx, "  a thought  ")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", e.ID)
	assert.Equal(t, SyncSynced, e.Sync)

	entries := s.Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "srv-1", entries[0].ID)
	assert.Equal(t, "a thought", entries[0].T)
	assert.Equal(t, "04 03 25 05 : 07 : 07", entries[0].TS)
	assert.Equal(t, base.Add(time.Minute).UnixMilli(), entries[0].TSUnix)
	assert.Empty(t, s.Draft(ctx))
	assert.Equal(t, []string{""}, remote.tokens)
}

func TestPostLocalThenSync_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	s := newTestStore(t, storage.NewMemory(), remote, "")

	e, err := s.PostLocalThenSync(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, Entry{}, e)
	assert.Empty(t, s.LoadLocal(ctx))
	assert.Empty(t, remote.tokens)
}

func TestPostLocalThenSync_FailureKeepsEntryThenRetry(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{postErr: errors.New("offline")}
	s := newTestStore(t, storage.NewMemory(), remote, "tok")

	e, err := s.PostLocalThenSync(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, SyncFailed, e.Sync)

	entries := s.Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, SyncFailed, entries[0].Sync)
	assert.Equal(t, "04 03 25 05 : 06 : 07", entries[0].TS)
	assert.Equal(t, "tok", remote.tokens[0])

	remote.postErr = nil
	n, err := s.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries = s.Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "srv-1", entries[0].ID)
	assert.Equal(t, SyncSynced, entries[0].Sync)

	n, err = s.RetryPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostLocalThenSync_SecondPostRejectedWhileSending(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{entered: make(chan struct{}, 1), block: make(chan struct{})}
	s := newTestStore(t, storage.NewMemory(), remote, "")

	done := make(chan error, 1)
	go func() {
		_, err := s.PostLocalThenSync(ctx, "first")
		done <- err
	}()
	<-remote.entered

	_, err := s.PostLocalThenSync(ctx, "second")
	assert.ErrorIs(t, err, ErrPostInProgress)
	_, err = s.RetryPending(ctx)
	assert.ErrorIs(t, err, ErrPostInProgress)

	close(remote.block)
	require.NoError(t, <-done)
	assert.Len(t, s.Entries(ctx), 1)
}

func TestSyncFromServer_ServerWinsLocalOnlyKept(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{posts: []feedclient.Post{
		{ID: "x", Body: "server text", TS: base.Format(time.RFC3339)},
		{ID: "y", Body: "new", TS: base.Add(time.Hour).Format(time.RFC3339)},
	}}
	s := newTestStore(t, storage.NewMemory(), remote, "")
	require.NoError(t, s.SaveLocal(ctx, []Entry{
		{ID: "x", T: "stale", Sync: SyncSynced},
		{ID: "local", T: "mine", TS: "01 01 25 00 : 00 : 00", TSUnix: 1, Sync: SyncFailed},
	}))

	require.NoError(t, s.SyncFromServer(ctx))

	entries := s.Entries(ctx)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"y", "x", "local"}, ids(entries))
	assert.Equal(t, "server text", entries[1].T)
	assert.Equal(t, SyncFailed, entries[2].Sync)

	remote.listErr = errors.New("down")
	assert.Error(t, s.SyncFromServer(ctx))
	assert.Len(t, s.Entries(ctx), 3)
}

func TestSyncFromServer_KeepsEditedFlag(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	s := newTestStore(t, storage.NewMemory(), remote, "tok")

	e, err := s.PostLocalThenSync(ctx, "fixed typo")
	require.NoError(t, err)
	assert.False(t, e.Edited)

	_, err = s.Edit(ctx, e.ID, "fixed the typo")
	require.NoError(t, err)
	require.NoError(t, s.SyncFromServer(ctx))

	entries := s.Entries(ctx)
	require.Len(t, entries, 1)
	assert.Equal(t, "fixed the typo", entries[0].T)
	assert.True(t, entries[0].Edited)
	assert.Equal(t, SyncSynced, entries[0].Sync)

	fresh := newTestStore(t, storage.NewMemory(), remote, "")
	require.NoError(t, fresh.SyncFromServer(ctx))
	assert.True(t, fresh.Entries(ctx)[0].Edited)
}

// slowStorage stretches every read-modify-write like a network round trip.
type slowStorage struct {
	*storage.Memory
}

func (s slowStorage) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	return s.Memory.Update(ctx, key, func(cur string, found bool) (string, error) {
		time.Sleep(2 * time.Millisecond)
		return fn(cur, found)
	})
}

func TestSyncFromServer_ConcurrentWithFailedPost(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{
		posts:   []feedclient.Post{{ID: "x", Body: "server", TS: base.Format(time.RFC3339)}},
		postErr: errors.New("offline"),
	}
	s := newTestStore(t, slowStorage{storage.NewMemory()}, remote, "")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.PostLocalThenSync(ctx, "unsent")
		assert.NoError(t, err)
	}()
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.SyncFromServer(ctx))
		}()
	}
	wg.Wait()

	entries := s.LoadLocal(ctx)
	require.Len(t, entries, 2)
	byText := map[string]Entry{}
	for _, e := range entries {
		byText[e.T] = e
	}
	assert.Equal(t, SyncFailed, byText["unsent"].Sync)
	assert.Equal(t, SyncSynced, byText["server"].Sync)
}

func TestSyncFromServer_Deterministic(t *testing.T) {
	ctx := context.Background()
	posts := []feedclient.Post{
		{ID: "b", Body: "2", TS: base.Format(time.RFC3339)},
		{ID: "a", Body: "1", TS: base.Format(time.RFC3339)},
		{ID: "c", Body: "3", TS: base.Add(time.Second).Format(time.RFC3339)},
		{ID: "d", Body: "4", TS: "not a time"},
	}
	reversed := []feedclient.Post{posts[3], posts[2], posts[1], posts[0]}
	local := []Entry{{ID: "z", T: "local", TS: "03 03 25 00 : 00 : 00", TSUnix: base.Add(-24 * time.Hour).UnixMilli(), Sync: SyncPending}}

	run := func(p []feedclient.Post) []Entry {
		s := newTestStore(t, storage.NewMemory(), &fakeRemote{posts: p}, "")
		require.NoError(t, s.SaveLocal(ctx, local))
		require.NoError(t, s.SyncFromServer(ctx))
		require.NoError(t, s.SyncFromServer(ctx))
		return s.Entries(ctx)
	}

	first := run(posts)
	assert.Equal(t, first, run(posts))
	assert.Equal(t, first, run(reversed))
	assert.Equal(t, []string{"c", "b", "a", "z", "d"}, ids(first))
}

func TestEntries_Ordering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory(), &fakeRemote{}, "")
	require.NoError(t, s.SaveLocal(ctx, []Entry{
		{ID: "old", TS: "01 01 25 00 : 00 : 00", TSUnix: 100},
		{ID: "new", TS: "01 01 25 00 : 00 : 01", TSUnix: 200},
		{ID: "nounix-b", TS: "02 01 25 00 : 00 : 00"},
		{ID: "nounix-a", TS: "02 01 25 00 : 00 : 00"},
	}))

	assert.Equal(t, []string{"new", "old", "nounix-b", "nounix-a"}, ids(s.Entries(ctx)))
}

func TestEditDelete_RequireOwner(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	remote := &fakeRemote{}
	anon := newTestStore(t, mem, remote, "")
	require.NoError(t, anon.SaveLocal(ctx, []Entry{{ID: "x", T: "text", Sync: SyncSynced}}))

	_, err := anon.Edit(ctx, "x", "changed")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.ErrorIs(t, anon.Delete(ctx, "x"), ErrNotOwner)
	assert.Equal(t, "text", anon.LoadLocal(ctx)[0].T)
	assert.Empty(t, remote.edits)
}

func TestEdit_OptimisticAndBestEffort(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{editErr: errors.New("server down")}
	s := newTestStore(t, storage.NewMemory(), remote, "tok")
	require.NoError(t, s.SaveLocal(ctx, []Entry{
		{ID: "x", T: "text", Sync: SyncSynced},
		{ID: "p", T: "unsent", Sync: SyncPending},
	}))

	e, err := s.Edit(ctx, "x", " changed ")
	require.NoError(t, err)
	assert.Equal(t, "changed", e.T)
	assert.True(t, e.Edited)

	_, err = s.Edit(ctx, "p", "still unsent")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, remote.edits)

	_, err = s.Edit(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Edit(ctx, "x", "  ")
	assert.ErrorIs(t, err, ErrEmptyText)

	require.NoError(t, s.Delete(ctx, "x"))
	require.NoError(t, s.Delete(ctx, "p"))
	assert.Equal(t, []string{"x"}, remote.deletes)
	assert.Empty(t, s.LoadLocal(ctx))
	assert.ErrorIs(t, s.Delete(ctx, "x"), ErrNotFound)
}

func TestMigrate_FoldsLegacyKeys(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.SetItem(ctx, "utd_local_v1", `[{"id":"a","t":"old local","ts":"04 03 25 05 : 06 : 07"},{"id":"b","t":"only local"}]`))
	require.NoError(t, mem.SetItem(ctx, "utd_server_v1", `{"items":[{"id":"a","t":"server copy","ts":"04 03 25 05 : 06 : 07"}]}`))
	require.NoError(t, mem.SetItem(ctx, "utd_items", `garbage`))
	require.NoError(t, mem.SetItem(ctx, "utd_title_v2", "MY TITLE"))
	s := newTestStore(t, mem, &fakeRemote{}, "")
	require.NoError(t, s.SaveLocal(ctx, []Entry{{ID: "c", T: "current", Sync: SyncPending}}))

	moved, err := s.Migrate(ctx)
	require.NoError(t, err)
	assert.True(t, moved)

	byID := map[string]Entry{}
	for _, e := range s.LoadLocal(ctx) {
		byID[e.ID] = e
	}
	require.Len(t, byID, 3)
	assert.Equal(t, "server copy", byID["a"].T)
	assert.Equal(t, base.UnixMilli(), byID["a"].TSUnix)
	assert.Equal(t, SyncSynced, byID["b"].Sync)
	assert.Equal(t, SyncPending, byID["c"].Sync)
	assert.Equal(t, "MY TITLE", s.Title(ctx))

	for _, key := range []string{"utd_local_v1", "utd_server_v1", "utd_items", "utd_title_v2"} {
		_, err := mem.GetItem(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}

	moved, err = s.Migrate(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestDraftAndTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory(), &fakeRemote{}, "")

	assert.Equal(t, DefaultTitle, s.Title(ctx))
	require.NoError(t, s.SetTitle(ctx, " Mine "))
	assert.Equal(t, "Mine", s.Title(ctx))
	require.NoError(t, s.SetTitle(ctx, ""))
	assert.Equal(t, DefaultTitle, s.Title(ctx))

	require.NoError(t, s.SaveDraft(ctx, "draft"))
	assert.Equal(t, "draft", s.Draft(ctx))
	require.NoError(t, s.ClearDraft(ctx))
	assert.Empty(t, s.Draft(ctx))
}

func TestSubscribe_ReceivesSortedSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory(), &fakeRemote{}, "")

	var got [][]Entry
	unsubscribe := s.Subscribe(func(entries []Entry) { got = append(got, entries) })
	require.NoError(t, s.SaveLocal(ctx, []Entry{{ID: "a", TSUnix: 1}, {ID: "b", TSUnix: 2}}))
	unsubscribe()
	require.NoError(t, s.SaveLocal(ctx, nil))

	require.Len(t, got, 1)
	assert.Equal(t, []string{"b", "a"}, ids(got[0]))
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
