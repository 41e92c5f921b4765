package usecase

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SyncLocker guards against two concurrent invocations running the same
// import. The storage-layer upsert already makes duplicate writes harmless;
// the lock avoids duplicate external API spend.
type SyncLocker interface {
	// Acquire returns true when the caller now holds the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) SyncLocker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, "synclock:"+key, "1", ttl).Result()
}

func (l *redisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, "synclock:"+key).Err()
}

// noopLocker keeps the lockless behavior for deployments without redis.
type noopLocker struct{}

func NewNoopLocker() SyncLocker { return noopLocker{} }

func (noopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (noopLocker) Release(ctx context.Context, key string) error { return nil }
