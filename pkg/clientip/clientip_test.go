package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flamingonails/bookings/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "192.0.2.10:5123", want: "192.0.2.10"},
		{name: "remote without port", remote: "192.0.2.10", want: "192.0.2.10"},
		{name: "cloudflare wins", headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"}, want: "203.0.113.7"},
		{name: "first valid forwarded entry", headers: map[string]string{"X-Forwarded-For": "unknown, 198.51.100.1, 10.0.0.1"}, want: "198.51.100.1"},
		{name: "invalid headers fall through", headers: map[string]string{"CF-Connecting-IP": "garbage", "X-Real-IP": "198.51.100.9"}, want: "198.51.100.9"},
		{name: "mapped ipv4", headers: map[string]string{"X-Real-IP": "::ffff:192.0.2.1"}, want: "192.0.2.1"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "nothing valid", remote: "pipe", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got, key string
	h := clientip.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
		key = clientip.Key(r)
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "198.51.100.1", got)
	assert.Equal(t, got, key)

	attr, ok := clientip.LoggerExtractor()(clientip.WithContext(t.Context(), "192.0.2.1"))
	assert.True(t, ok)
	assert.Equal(t, "192.0.2.1", attr.Value.String())
}
