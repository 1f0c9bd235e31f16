package cart

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/ref_site/pkg/notify"
	"github.com/Skotchmaster/ref_site/services/storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *storage.Memory, *notify.Hub) {
	t.Helper()
	mem := storage.NewMemory()
	hub := notify.NewHub()
	return NewStore(mem, hub, "sid"), mem, hub
}

func tee(size string) LineItem {
	return LineItem{PriceID: "p1", Title: "Tee", DisplayPrice: "$20", Size: size, Color: "Black"}
}

func TestAddOrIncrement_SameLineMerges(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)
	items, err := s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, items, s.ReadCart(ctx))
}

func TestAddOrIncrement_DifferentSizeAppends(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)
	items, err := s.AddOrIncrement(ctx, tee("L"))
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "M", items[0].Size)
	assert.Equal(t, "L", items[1].Size)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestAddOrIncrement_RequestedAmount(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	item := tee("S")
	item.Quantity = 3
	_, err := s.AddOrIncrement(ctx, item)
	require.NoError(t, err)

	item.Quantity = -5
	items, err := s.AddOrIncrement(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, 4, s.Count(ctx))
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)
	_, err = s.AddOrIncrement(ctx, tee("L"))
	require.NoError(t, err)

	items, err := s.SetQuantity(ctx, tee("M"), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "L", items[0].Size)

	items, err = s.SetQuantity(ctx, tee("L"), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	items, err = s.SetQuantity(ctx, tee("XL"), 2)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestChangeQuantity(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)

	items, err := s.ChangeQuantity(ctx, tee("M"), +1)
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)

	_, err = s.ChangeQuantity(ctx, tee("M"), -1)
	require.NoError(t, err)
	items, err = s.ChangeQuantity(ctx, tee("M"), -1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReadCart_MalformedStorageIsEmpty(t *testing.T) {
	s, mem, _ := newTestStore(t)
	ctx := context.Background()

	for _, raw := range []string{"", "not json", `{"priceId":"p1"}`, `null`, `"x"`, `[1,2]`} {
		require.NoError(t, mem.SetItem(ctx, StorageKey, raw))
		items := s.ReadCart(ctx)
		assert.NotNil(t, items, raw)
		assert.Empty(t, items, raw)
	}

	require.NoError(t, mem.SetItem(ctx, StorageKey, "garbage"))
	items, err := s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestReadCart_NumericProductID(t *testing.T) {
	s, mem, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, mem.SetItem(ctx, StorageKey, `[{"id":101,"priceId":"p","quantity":1},{"id":" abc ","priceId":"q"}]`))
	items := s.ReadCart(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, ProductID("101"), items[0].ID)
	assert.Equal(t, ProductID("abc"), items[1].ID)
}

func TestWriteCart_NotifiesAfterPersist(t *testing.T) {
	s, mem, _ := newTestStore(t)
	ctx := context.Background()

	var seen [][]LineItem
	unsubscribe := s.Subscribe(func(items []LineItem) {
		raw, err := mem.GetItem(ctx, StorageKey)
		require.NoError(t, err)
		var stored []LineItem
		require.NoError(t, json.Unmarshal([]byte(raw), &stored))
		assert.Equal(t, items, stored)
		seen = append(seen, items)
	})

	_, err := s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	unsubscribe()
	_, err = s.AddOrIncrement(ctx, tee("M"))
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Empty(t, seen[1])
}

func TestSubscribe_SessionsAreIsolated(t *testing.T) {
	hub := notify.NewHub()
	a := NewStore(storage.NewMemory(), hub, "a")
	b := NewStore(storage.NewMemory(), hub, "b")

	calls := 0
	defer a.Subscribe(func([]LineItem) { calls++ })()

	_, err := b.AddOrIncrement(context.Background(), tee("M"))
	require.NoError(t, err)
	assert.Zero(t, calls)
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

func TestAddOrIncrement_ConcurrentAddsAllCount(t *testing.T) {
	s := NewStore(slowStorage{storage.NewMemory()}, notify.NewHub(), "sid")
	ctx := context.Background()

	_, err := s.AddOrIncrement(ctx, tee("L"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.AddOrIncrement(ctx, tee("M"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.ChangeQuantity(ctx, tee("L"), +1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items := s.ReadCart(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "L", items[0].Size)
	assert.Equal(t, 9, items[0].Quantity)
	assert.Equal(t, "M", items[1].Size)
	assert.Equal(t, 8, items[1].Quantity)
	assert.Equal(t, 17, s.Count(ctx))
}
