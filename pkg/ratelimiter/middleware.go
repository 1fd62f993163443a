package ratelimiter

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// KeyFunc names the bucket for a request. Requests with an empty key pass
// through unlimited.
type KeyFunc func(r *http.Request) string

// DenyFunc answers a request that was limited, in which case err wraps
// ErrLimitExceeded, or whose draw failed.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

type MiddlewareOption func(*middleware)

type middleware struct {
	bucket *Bucket
	key    KeyFunc
	deny   DenyFunc
	now    func() time.Time
}

// WithDenyHandler replaces the plain text 429 and 500 answers.
func WithDenyHandler(fn DenyFunc) MiddlewareOption {
	return func(m *middleware) {
		if fn != nil {
			m.deny = fn
		}
	}
}

// Middleware draws one token per request and reports the bucket in
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset.
// Limited requests also get Retry-After in whole seconds.
func Middleware(b *Bucket, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	m := &middleware{bucket: b, key: key, deny: plainDeny, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (m *middleware) admit(w http.ResponseWriter, r *http.Request) bool {
	k := m.key(r)
	if k == "" {
		return true
	}
	res, err := m.bucket.Allow(r.Context(), k)
	if err != nil {
		m.deny(w, r, err)
		return false
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if res.Allowed() {
		return true
	}
	wait := math.Ceil(res.RetryAfter(m.now()).Seconds())
	h.Set("Retry-After", strconv.Itoa(int(wait)))
	m.deny(w, r, ErrLimitExceeded)
	return false
}

func plainDeny(w http.ResponseWriter, _ *http.Request, err error) {
	code := http.StatusInternalServerError
	if IsLimitExceeded(err) {
		code = http.StatusTooManyRequests
	}
	http.Error(w, http.StatusText(code), code)
}
