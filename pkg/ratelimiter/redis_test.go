package ratelimiter_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/ratelimiter"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := &clock{now: time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)}
	store := ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix("test:rl:"), ratelimiter.WithRedisClock(c.Now))
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)
	ctx := t.Context()

	for want := 1; want >= 0; want-- {
		res, err := b.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, res.Remaining)
	}
	assert.True(t, mr.Exists("test:rl:10.0.0.1"))

	res, err := b.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, time.Minute, res.RetryAfter(c.Now()))

	res, err = b.AllowN(ctx, "10.0.0.1", 5)
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	c.Advance(time.Minute)
	res, err = b.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	require.NoError(t, b.Reset(ctx, "10.0.0.1"))
	res, err = b.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Remaining)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	b, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client), ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)
	_, err = b.Allow(t.Context(), "k")
	require.Error(t, err)
	assert.False(t, ratelimiter.IsLimitExceeded(err))
}
