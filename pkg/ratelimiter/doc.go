// Package ratelimiter limits requests with one token bucket per key.
//
// A Bucket holds the sizing and draws from a Store. MemoryStore suits a
// single process and RedisStore shares buckets between replicas.
// Middleware puts a Bucket in front of an http.Handler:
//
//	limit, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(limit, clientip.Key)).Post("/bookings", submit)
package ratelimiter
