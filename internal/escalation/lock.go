package escalation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TickLock serializes scheduler ticks across instances. A held lock means
// another replica is already working through the ticket set.
type TickLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type noopLock struct{}

// NewNoopLock returns a lock that always acquires. Used when no coordination
// backend is configured; the in-process overlap guard still applies.
func NewNoopLock() TickLock {
	return noopLock{}
}

func (noopLock) Acquire(context.Context) (bool, error) { return true, nil }
func (noopLock) Release(context.Context) error         { return nil }

type redisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock builds a best-effort distributed tick lock. The TTL bounds
// how long a crashed holder can block other replicas.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) TickLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &redisLock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

func (l *redisLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

func (l *redisLock) Release(ctx context.Context) error {
	// Only delete our own token so a lock that expired and was re-acquired
	// by another replica is left alone.
	val, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if val != l.token {
		return nil
	}
	return l.client.Del(ctx, l.key).Err()
}
