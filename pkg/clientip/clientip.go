package clientip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers set by proxies, most trusted first. A header may carry a comma
// separated chain; its first parsable address wins.
var Headers = []string{
	"CF-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// GetIP resolves the client address of r from Headers or the TCP peer. It
// returns "" when nothing parses.
func GetIP(r *http.Request) string {
	for _, h := range Headers {
		for part := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := normalize(part); ip != "" {
				return ip
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return normalize(host)
	}
	return normalize(r.RemoteAddr)
}

// normalize drops zones and IPv4-mapped prefixes so one client has one key.
func normalize(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

type ctxKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ip)
}

func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKey{}).(string)
	return ip
}

// Middleware resolves the client address once per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), GetIP(r))))
	})
}

// Key is a ratelimiter.KeyFunc. It prefers the address Middleware stored.
func Key(r *http.Request) string {
	if ip := FromContext(r.Context()); ip != "" {
		return ip
	}
	return GetIP(r)
}

// LoggerExtractor tags log records with client_ip.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		ip := FromContext(ctx)
		return slog.String("client_ip", ip), ip != ""
	}
}
