package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/flamingonails/bookings/pkg/logger"
)

// Check is a named dependency check.
type Check func(context.Context) error

// LivenessHandler always answers 200 with {"status":"alive"}.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, map[string]any{"status": "alive"})
	}
}

// ReadinessHandler runs every check per request. It answers 200 when all
// pass and 503 otherwise, listing each check's outcome.
func ReadinessHandler(log *slog.Logger, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					slog.String("check", name), logger.Error(err))
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		body := map[string]any{"status": "ready", "checks": results}
		if status != http.StatusOK {
			body["status"] = "not_ready"
		}
		writeHealth(w, status, body)
	}
}

func writeHealth(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
