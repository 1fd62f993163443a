package requestid_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generates when missing"},
		{name: "keeps valid id", incoming: "req_123-abc", keep: true},
		{name: "replaces invalid id", incoming: "bad id!"},
		{name: "replaces oversized id", incoming: strings.Repeat("a", 129)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = requestid.FromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
			if tt.incoming != "" {
				req.Header.Set(requestid.Header, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(requestid.Header))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()
	assert.Empty(t, requestid.FromContext(context.Background()))
	assert.Equal(t, "abc", requestid.FromContext(requestid.WithContext(context.Background(), "abc")))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	log.InfoContext(requestid.WithContext(context.Background(), "req-42"), "hello")
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
}
