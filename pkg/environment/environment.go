package environment

import (
	"context"
	"net/http"
	"strings"
)

// Environment is the deployment stage named by APP_ENV.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Parse accepts full names and the prod and stage aliases, in any case.
// Anything else is Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	}
	return Development
}

func (e Environment) IsProduction() bool  { return e == Production }
func (e Environment) IsDevelopment() bool { return e == Development }

type ctxKey struct{}

func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, ctxKey{}, env)
}

// FromContext returns the empty Environment if ctx carries none.
func FromContext(ctx context.Context) Environment {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(ctxKey{}).(Environment)
	return env
}

// IsDevelopment reports false for a context without an environment.
func IsDevelopment(ctx context.Context) bool { return FromContext(ctx).IsDevelopment() }

// Middleware stores env in every request context.
func Middleware(env Environment) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), env)))
		})
	}
}
