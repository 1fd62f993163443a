package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens int
	filled time.Time // start of the current refill interval
	seen   time.Time
}

// MemoryStore keeps buckets in process memory. A background sweep forgets
// buckets nobody has touched for a while.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	every time.Duration
	idle  time.Duration
	quit  chan struct{}
	once  sync.Once
}

type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets the sweep period. Zero turns the sweep off.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.every = d }
}

// WithStaleThreshold sets how long an untouched bucket survives a sweep.
func WithStaleThreshold(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.idle = d
		}
	}
}

func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		buckets: map[string]*bucket{},
		now:     time.Now,
		every:   5 * time.Minute,
		idle:    time.Hour,
		quit:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.every > 0 {
		go s.sweep()
	}
	return s
}

func (s *MemoryStore) ConsumeTokens(_ context.Context, key string, n int, cfg Config) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b := s.buckets[key]
	if b == nil {
		b = &bucket{tokens: cfg.Capacity, filled: now}
		s.buckets[key] = b
	}
	b.seen = now
	refill(b, now, cfg)

	resetAt := b.filled.Add(cfg.RefillInterval)
	if b.tokens < n {
		return b.tokens - n, resetAt, nil
	}
	b.tokens -= n
	return b.tokens, resetAt, nil
}

// refill credits whole elapsed intervals. A full bucket restarts its
// interval at now.
func refill(b *bucket, now time.Time, cfg Config) {
	// Bounded so the product below cannot overflow.
	limit := int64(cfg.Capacity/cfg.RefillRate + 1)
	steps := min(int64(now.Sub(b.filled)/cfg.RefillInterval), limit)
	if steps <= 0 {
		return
	}
	b.tokens = min(b.tokens+int(steps)*cfg.RefillRate, cfg.Capacity)
	b.filled = b.filled.Add(time.Duration(steps) * cfg.RefillInterval)
	if b.tokens == cfg.Capacity {
		b.filled = now
	}
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.buckets, key)
	s.mu.Unlock()
	return nil
}

// Len is the number of buckets held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *MemoryStore) sweep() {
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-t.C:
			s.mu.Lock()
			cutoff := s.now().Add(-s.idle)
			for key, b := range s.buckets {
				if b.seen.Before(cutoff) {
					delete(s.buckets, key)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Close stops the sweep.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.quit) })
}
