package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis, or returns nil when no address is
// configured. Callers treat a nil client as locking and caching off,
// which is correct for single-node deployments.
func NewRedisClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// Lock is a best-effort distributed lock. The worker takes it before
// firing scheduled jobs so two instances never double-run a schedule.
// The job claim itself is still serialized by the database, the lock
// only avoids duplicate enqueues.
type Lock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, token: uuid.NewString(), ttl: ttl}
}

// TryAcquire attempts to take the lock. Without a Redis client it
// always succeeds.
func (l *Lock) TryAcquire(ctx context.Context) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Refresh extends the lock when still held by this instance.
func (l *Lock) Refresh(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	held, err := l.holds(ctx)
	if err != nil || !held {
		return err
	}
	return l.client.Expire(ctx, l.key, l.ttl).Err()
}

// Release drops the lock if this instance still holds it.
func (l *Lock) Release(ctx context.Context) error {
	if l.client == nil {
		return nil
	}
	held, err := l.holds(ctx)
	if err != nil || !held {
		return err
	}
	return l.client.Del(ctx, l.key).Err()
}

func (l *Lock) holds(ctx context.Context) (bool, error) {
	val, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == l.token, nil
}

// CacheKeyDashboard is where the dashboard statistics snapshot lives.
// The API writes it, the worker invalidates it after nightly runs.
const CacheKeyDashboard = "stats:dashboard"

// Cache is a small byte cache with a fixed TTL, used for dashboard
// statistics. All operations degrade to no-ops without a client.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, key).Err()
}
