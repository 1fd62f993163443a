package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/flamingonails/bookings/pkg/environment"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/pkg/requestid"
)

// MappedError is the HTTP form of an application error.
type MappedError struct {
	Status int
	Detail *ErrorDetail
	Meta   map[string]any
}

// ErrorMapper translates the errors of one module. It reports false for
// errors it does not own.
type ErrorMapper func(err error) (MappedError, bool)

// NewErrorHandler writes errors as JSON envelopes carrying the request id.
// Mappers are tried in order before the shared translation of JSONError.
// In development the message of an internal error is exposed.
// 4xx responses are logged at WARN and 5xx at ERROR. A DataStar request gets
// the detail as an "error" signal instead.
func NewErrorHandler[C Context](log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[C] {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return func(ctx C, err error) {
		if err == nil {
			return
		}
		r := ctx.Request()
		m := resolve(err, mappers)
		if m.Detail.Code == ErrInternal.Key && environment.IsDevelopment(r.Context()) {
			m.Detail.Message = err.Error()
		}

		level := slog.LevelWarn
		if m.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", m.Status),
			slog.String("code", m.Detail.Code),
			logger.Error(err),
		)

		if sse := ctx.SSE(); sse != nil {
			if payload, mErr := json.Marshal(map[string]any{"error": m.Detail}); mErr == nil && sse.PatchSignals(payload) == nil {
				return
			}
		}

		meta := map[string]any{}
		for k, v := range m.Meta {
			meta[k] = v
		}
		if id := requestid.FromContext(r.Context()); id != "" {
			meta["request_id"] = id
		}
		resp := JSONError(m.Detail, WithJSONStatus(m.Status), WithJSONMeta(meta))
		if rErr := resp.Render(ctx.ResponseWriter(), r); rErr != nil {
			log.ErrorContext(r.Context(), "render error response", logger.Error(rErr))
		}
	}
}

func resolve(err error, mappers []ErrorMapper) MappedError {
	for _, mapper := range mappers {
		if mapper == nil {
			continue
		}
		m, ok := mapper(err)
		if !ok {
			continue
		}
		if m.Status == 0 {
			m.Status = http.StatusInternalServerError
		}
		if m.Detail == nil {
			m.Detail = &ErrorDetail{Code: ErrInternal.Key}
		}
		return m
	}
	status, detail := translate(err)
	return MappedError{Status: status, Detail: detail}
}
