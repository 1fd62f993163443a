package ratelimiter_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBucket(t *testing.T, cfg ratelimiter.Config) (*ratelimiter.Bucket, *ratelimiter.MemoryStore, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)}
	store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(c.Now), ratelimiter.WithSweepInterval(0))
	t.Cleanup(store.Close)
	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b, store, c
}

func TestNewBucket_InvalidConfig(t *testing.T) {
	t.Parallel()

	for _, cfg := range []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0)), cfg)
		require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}
}

func TestBucket_DrainsAndRefills(t *testing.T) {
	t.Parallel()
	b, _, c := newBucket(t, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Minute})
	ctx := t.Context()

	for want := 1; want >= 0; want-- {
		res, err := b.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, want, res.Remaining)
	}

	res, err := b.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, time.Minute, res.RetryAfter(c.Now()))

	other, err := b.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed())

	c.Advance(time.Minute)
	res, err = b.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
	assert.Equal(t, 0, res.Remaining)

	c.Advance(time.Hour)
	res, err = b.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Remaining, "refill is capped at capacity")

	_, err = b.AllowN(ctx, "10.0.0.1", 0)
	require.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestBucket_DeniedDrawTakesNothing(t *testing.T) {
	t.Parallel()
	b, _, _ := newBucket(t, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute})

	res, err := b.AllowN(t.Context(), "k", 4)
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	res, err = b.AllowN(t.Context(), "k", 3)
	require.NoError(t, err)
	assert.True(t, res.Allowed())
}

func TestBucket_Reset(t *testing.T) {
	t.Parallel()
	b, store, _ := newBucket(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})

	_, err := b.Allow(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, b.Reset(t.Context(), "k"))
	assert.Equal(t, 0, store.Len())
	res, err := b.Allow(t.Context(), "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	b, _, _ := newBucket(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: 30 * time.Second})

	var denied error
	mw := ratelimiter.Middleware(b, func(r *http.Request) string { return r.Header.Get("X-Key") },
		ratelimiter.WithDenyHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
			denied = err
			w.WriteHeader(http.StatusTooManyRequests)
		}),
	)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	call := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		if key != "" {
			req.Header.Set("X-Key", key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("a")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = call("a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.ErrorIs(t, denied, ratelimiter.ErrLimitExceeded)

	assert.Equal(t, http.StatusNoContent, call("").Code, "requests without a key are not limited")
}
