package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter_BansAfterQuota(t *testing.T) {
	rl := NewMemoryRateLimiter(&Config{WindowSize: time.Minute, MaxAttempts: 2, CleanupPeriod: time.Hour, BanDuration: 10 * time.Minute})
	defer rl.Close()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, info := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	assert.Equal(t, 1, info.Remaining)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	ok, info = rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.True(t, info.Banned)
	assert.Equal(t, 10*time.Minute, info.RetryAfter)

	// other identifiers are unaffected
	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok)

	now = now.Add(5 * time.Minute)
	ok, info = rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 5*time.Minute, info.RetryAfter)

	now = now.Add(6 * time.Minute)
	ok, info = rl.Allow("1.2.3.4")
	assert.True(t, ok)
	assert.False(t, info.Banned)
}

func TestMemoryRateLimiter_SuccessResets(t *testing.T) {
	rl := NewMemoryRateLimiter(&Config{WindowSize: time.Minute, MaxAttempts: 1, CleanupPeriod: time.Hour, BanDuration: time.Minute})
	defer rl.Close()

	ok, _ := rl.Allow("ip")
	require.True(t, ok)
	rl.RecordSuccess("ip")
	ok, _ = rl.Allow("ip")
	assert.True(t, ok)
}

func TestMemoryRateLimiter_Cleanup(t *testing.T) {
	rl := NewMemoryRateLimiter(&Config{WindowSize: time.Minute, MaxAttempts: 5, CleanupPeriod: time.Hour, BanDuration: time.Minute})
	defer rl.Close()
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("a")

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.attempts)
	rl.mu.Unlock()
}

func TestTokenBucketLimiter(t *testing.T) {
	l := NewTokenBucketLimiter(1, 2, time.Minute)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "ip"))
	assert.True(t, l.Allow(ctx, "ip"))
	assert.False(t, l.Allow(ctx, "ip"))
	assert.True(t, l.Allow(ctx, "other"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow(ctx, "ip"))

	now = now.Add(2 * time.Minute)
	l.Allow(ctx, "fresh")
	l.mu.Lock()
	assert.Len(t, l.visitors, 1)
	l.mu.Unlock()
}

func TestRedisFixedWindowLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var errs int
	l, err := NewRedisFixedWindowLimiter(client, "", 2, time.Minute, func(error) { errs++ })
	require.NoError(t, err)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "ip"))
	assert.True(t, l.Allow(ctx, "ip"))
	assert.False(t, l.Allow(ctx, "ip"))
	assert.True(t, l.Allow(ctx, "other"))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow(ctx, "ip"))

	mr.Close()
	assert.True(t, l.Allow(ctx, "ip"))
	assert.Equal(t, 1, errs)

	_, err = NewRedisFixedWindowLimiter(nil, "", 1, time.Second, nil)
	assert.Error(t, err)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.3")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}
