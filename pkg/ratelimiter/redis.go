package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consume runs the same whole-interval refill as MemoryStore inside Redis.
// Times are unix milliseconds.
var consume = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local want = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'filled')
local tokens = tonumber(state[1])
local filled = tonumber(state[2])
if tokens == nil or filled == nil then
	tokens = capacity
	filled = now
end

local steps = math.floor((now - filled) / interval)
if steps > 0 then
	steps = math.min(steps, math.floor(capacity / rate) + 1)
	tokens = math.min(tokens + steps * rate, capacity)
	filled = filled + steps * interval
	if tokens == capacity then
		filled = now
	end
end

local remaining = tokens - want
if remaining >= 0 then
	tokens = remaining
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'filled', filled)
redis.call('PEXPIRE', KEYS[1], (math.floor(capacity / rate) + 1) * interval)
return {remaining, filled + interval}
`)

// RedisStore keeps buckets in Redis hashes, so every replica draws from
// the same bucket for a key.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces bucket keys. The default is "ratelimit:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "ratelimit:", now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (int, time.Time, error) {
	out, err := consume.Run(ctx, s.client, []string{s.prefix + key},
		cfg.Capacity, cfg.RefillRate, cfg.RefillInterval.Milliseconds(), s.now().UnixMilli(), n,
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimiter: consume %s: %w", key, err)
	}
	if len(out) != 2 {
		return 0, time.Time{}, fmt.Errorf("ratelimiter: consume %s: unexpected reply %v", key, out)
	}
	return int(out[0]), time.UnixMilli(out[1]), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimiter: reset %s: %w", key, err)
	}
	return nil
}
