package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig     = errors.New("ratelimiter: invalid config")
	ErrInvalidTokenCount = errors.New("ratelimiter: token count must be positive")
	// ErrLimitExceeded reaches the Middleware deny handler when a bucket is empty.
	ErrLimitExceeded = errors.New("ratelimiter: limit exceeded")
)

func IsLimitExceeded(err error) bool { return errors.Is(err, ErrLimitExceeded) }

// Config sizes every bucket of a limiter. RefillRate tokens come back each
// RefillInterval, never past Capacity.
type Config struct {
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"10"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1m"`
	// Store is memory or redis.
	Store string `env:"RATE_LIMIT_STORE" envDefault:"memory"`
}

func (c Config) check() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity %d", ErrInvalidConfig, c.Capacity)
	case c.RefillRate <= 0:
		return fmt.Errorf("%w: refill rate %d", ErrInvalidConfig, c.RefillRate)
	case c.RefillInterval <= 0:
		return fmt.Errorf("%w: refill interval %s", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// Store holds bucket state for many keys.
type Store interface {
	// ConsumeTokens refills the bucket for key, then takes n tokens if that
	// many are left. Otherwise nothing is taken and remaining is negative.
	ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

// Result describes one draw.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (r Result) Allowed() bool { return r.Remaining >= 0 }

// RetryAfter is zero for an allowed draw.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Bucket applies one Config to keys kept in a Store.
type Bucket struct {
	store Store
	cfg   Config
}

func NewBucket(store Store, cfg Config) (*Bucket, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, cfg: cfg}, nil
}

func (b *Bucket) Allow(ctx context.Context, key string) (Result, error) {
	return b.AllowN(ctx, key, 1)
}

func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidTokenCount, n)
	}
	remaining, resetAt, err := b.store.ConsumeTokens(ctx, key, n, b.cfg)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: b.cfg.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

// Reset gives key a full bucket.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
