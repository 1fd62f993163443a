package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/flamingonails/bookings/pkg/logger"
)

// Header is read from requests and echoed on responses.
const Header = "X-Request-ID"

// Inbound ids longer than this or outside [A-Za-z0-9_-] are replaced.
const maxLength = 128

var wellFormed = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Middleware reuses a well-formed inbound id or generates a UUID, then stores
// it in the request context and the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if len(id) > maxLength || !wellFormed.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

type ctxKey struct{}

func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns "" if ctx carries no id.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// LoggerExtractor adds request_id to records logged with a request context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id := FromContext(ctx)
		if id == "" {
			return slog.Attr{}, false
		}
		return logger.RequestID(id), true
	}
}
