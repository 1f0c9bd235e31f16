package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 100

// Redis stores one namespace under "<namespace>:<key>". A positive ttl is
// applied on every write and refreshed on every read.
type Redis struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

func NewRedis(client *redis.Client, namespace string, ttl time.Duration) *Redis {
	return &Redis{client: client, namespace: namespace, ttl: ttl}
}

func (r *Redis) key(k string) string {
	return fmt.Sprintf("%s:%s", r.namespace, k)
}

func (r *Redis) GetItem(ctx context.Context, key string) (string, error) {
	k := r.key(key)
	v, err := r.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, k, r.ttl).Err(); err != nil {
			return "", fmt.Errorf("redis expire failed: %w", err)
		}
	}
	return v, nil
}

func (r *Redis) SetItem(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *Redis) RemoveItem(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Update runs fn inside WATCH/MULTI/EXEC and retries when another writer
// touched the key in between.
func (r *Redis) Update(ctx context.Context, key string, fn UpdateFunc) error {
	k := r.key(key)
	var fnErr error
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, k).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			cur, found = "", false
		} else if err != nil {
			return err
		}
		next, err := fn(cur, found)
		if err != nil {
			fnErr = err
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, r.ttl)
			return nil
		})
		return err
	}

	for range maxUpdateRetries {
		fnErr = nil
		err := r.client.Watch(ctx, txf, k)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case fnErr != nil:
			return fnErr
		default:
			return fmt.Errorf("redis update failed: %w", err)
		}
	}
	return ErrConflict
}

type RedisFactory struct {
	Client     *redis.Client
	Prefix     string
	LocalTTL   time.Duration
	SessionTTL time.Duration
}

func (f *RedisFactory) Local(sessionID string) Storage {
	return NewRedis(f.Client, f.Prefix+":local:"+sessionID, f.LocalTTL)
}

func (f *RedisFactory) Session(sessionID string) Storage {
	return NewRedis(f.Client, f.Prefix+":session:"+sessionID, f.SessionTTL)
}
