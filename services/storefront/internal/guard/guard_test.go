package guard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	ctx := context.Background()
	g := NewSet()

	assert.True(t, g.TryAcquire(ctx, "a"))
	assert.False(t, g.TryAcquire(ctx, "a"))
	assert.True(t, g.TryAcquire(ctx, "b"))

	g.Release(ctx, "a")
	assert.True(t, g.TryAcquire(ctx, "a"))

	g.Release(ctx, "never")
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisSet_SharedAcrossReplicas(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	a := NewRedisSet(client, "ref:guard:checkout", 30*time.Second)
	b := NewRedisSet(client, "ref:guard:checkout", 30*time.Second)

	require.True(t, a.TryAcquire(ctx, "sid"))
	assert.False(t, b.TryAcquire(ctx, "sid"))
	assert.True(t, b.TryAcquire(ctx, "other"))
	assert.Equal(t, 30*time.Second, mr.TTL("ref:guard:checkout:sid"))

	b.Release(ctx, "sid")
	assert.True(t, mr.Exists("ref:guard:checkout:sid"))

	a.Release(ctx, "sid")
	assert.False(t, mr.Exists("ref:guard:checkout:sid"))
	assert.True(t, b.TryAcquire(ctx, "sid"))
}

func TestRedisSet_ExpiredHolderKeepsNewFlag(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	a := NewRedisSet(client, "ref:guard:feed", time.Second)
	b := NewRedisSet(client, "ref:guard:feed", time.Second)

	require.True(t, a.TryAcquire(ctx, "sid"))
	mr.FastForward(2 * time.Second)
	require.True(t, b.TryAcquire(ctx, "sid"))

	a.Release(ctx, "sid")
	assert.True(t, mr.Exists("ref:guard:feed:sid"))
}

func TestRedisSet_DownFailsClosed(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	g := NewRedisSet(client, "ref:guard:checkout", time.Second)

	assert.False(t, g.TryAcquire(context.Background(), "sid"))
}
