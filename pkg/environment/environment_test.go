package environment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flamingonails/bookings/pkg/environment"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want environment.Environment
	}{
		{"production", environment.Production},
		{"prod", environment.Production},
		{" PROD ", environment.Production},
		{"staging", environment.Staging},
		{"stage", environment.Staging},
		{"development", environment.Development},
		{"", environment.Development},
		{"qa", environment.Development},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, environment.Parse(tt.in))
		})
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := environment.WithContext(context.Background(), environment.Production)
	assert.Equal(t, environment.Production, environment.FromContext(ctx))
	assert.True(t, environment.FromContext(ctx).IsProduction())
	assert.False(t, environment.IsDevelopment(ctx))

	assert.Equal(t, environment.Environment(""), environment.FromContext(context.Background()))
	assert.False(t, environment.IsDevelopment(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, environment.Environment(""), environment.FromContext(nil))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got environment.Environment
	h := environment.Middleware(environment.Staging)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = environment.FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, environment.Staging, got)
}
