// Package guard holds per-key "operation in flight" flags. The storefront
// keys them by session id. A Redis-backed set is shared by every replica
// using the same Redis; the plain set covers one process.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/ref_site/pkg/logging"
)

// releaseScript deletes the flag only while it still carries our token, so
// a holder whose flag expired cannot clear someone else's.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Set struct {
	mu   sync.Mutex
	held map[string]string

	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSet() *Set {
	return &Set{held: make(map[string]string)}
}

// NewRedisSet stores each flag as "<prefix>:<key>" with SET NX PX. ttl bounds
// how long a crashed holder blocks the key.
func NewRedisSet(client *redis.Client, prefix string, ttl time.Duration) *Set {
	s := NewSet()
	s.client, s.prefix, s.ttl = client, prefix, ttl
	return s
}

// TryAcquire reports whether the caller now holds key. A Redis failure
// counts as held by someone else.
func (g *Set) TryAcquire(ctx context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return false
	}
	token := ""
	if g.client != nil {
		token = uuid.NewString()
		ok, err := g.client.SetNX(ctx, g.redisKey(key), token, g.ttl).Result()
		if err != nil {
			logging.FromContext(ctx).Warn("guard_acquire_failed", "key", key, "error", err)
			return false
		}
		if !ok {
			return false
		}
	}
	g.held[key] = token
	return true
}

func (g *Set) Release(ctx context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	token, ok := g.held[key]
	if !ok {
		return
	}
	delete(g.held, key)
	if g.client == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := releaseScript.Run(ctx, g.client, []string{g.redisKey(key)}, token).Err(); err != nil {
		logging.FromContext(ctx).Warn("guard_release_failed", "key", key, "error", err)
	}
}

func (g *Set) redisKey(key string) string {
	return g.prefix + ":" + key
}
