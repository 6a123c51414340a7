package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease is a best-effort cross-replica mutex around room creation.
// Losing or failing to take a lease is never an error for the caller.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool)
}

// NoopLease always grants; used when Redis is not configured.
type NoopLease struct{}

func (NoopLease) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	return func() {}, true
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease takes the lease with SET NX PX and releases it only if still owned.
type RedisLease struct {
	client *redis.Client
	prefix string
	logger Logger
}

func NewRedisLease(client *redis.Client, prefix string, logger Logger) *RedisLease {
	if prefix == "" {
		prefix = "dreamer:lease"
	}
	return &RedisLease{client: client, prefix: prefix, logger: logger}
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	redisKey := l.prefix + ":" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		l.logger.Warn("Lease acquire failed, continuing without it", "key", redisKey, "error", err)
		return func() {}, false
	}
	if !ok {
		return func() {}, false
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("Lease release failed", "key", redisKey, "error", err)
		}
	}
	return release, true
}
