package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/handler"
	"github.com/flamingonails/bookings/pkg/environment"
	"github.com/flamingonails/bookings/pkg/requestid"
)

var errConflict = errors.New("conflict")

func conflictMapper(err error) (handler.MappedError, bool) {
	if !errors.Is(err, errConflict) {
		return handler.MappedError{}, false
	}
	return handler.MappedError{
		Status: http.StatusConflict,
		Detail: &handler.ErrorDetail{Code: "stale_state", Message: "booking bk-1 changed"},
		Meta:   map[string]any{"booking_id": "bk-1"},
	}, true
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("uses mapper and request id", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logs, nil))
		eh := handler.NewErrorHandler[handler.Context](log, conflictMapper)

		req := httptest.NewRequest(http.MethodPost, "/bookings/bk-1/transition", nil)
		req = req.WithContext(requestid.WithContext(req.Context(), "req-42"))
		rec := httptest.NewRecorder()

		eh(handler.NewContext(rec, req), errConflict)

		assert.Equal(t, http.StatusConflict, rec.Code)
		var body handler.JSONResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Error)
		assert.Equal(t, "stale_state", body.Error.Code)
		assert.Equal(t, "bk-1", body.Meta["booking_id"])
		assert.Equal(t, "req-42", body.Meta["request_id"])

		assert.Contains(t, logs.String(), `"level":"WARN"`)
		assert.Contains(t, logs.String(), `"status":409`)
	})

	t.Run("falls back to generic translation", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logs, nil))
		eh := handler.NewErrorHandler[handler.Context](log, conflictMapper)

		rec := httptest.NewRecorder()
		eh(handler.NewContext(rec, httptest.NewRequest(http.MethodGet, "/", nil)), errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "internal_error")
		assert.NotContains(t, rec.Body.String(), "boom")
		assert.Contains(t, logs.String(), `"level":"ERROR"`)
		assert.Contains(t, logs.String(), "boom")
	})

	t.Run("development exposes internal message", func(t *testing.T) {
		t.Parallel()
		eh := handler.NewErrorHandler[handler.Context](nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(environment.WithContext(req.Context(), environment.Development))
		rec := httptest.NewRecorder()
		eh(handler.NewContext(rec, req), errors.New("dial tcp: refused"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "dial tcp: refused")
	})

	t.Run("DataStar request gets error signal", func(t *testing.T) {
		t.Parallel()
		eh := handler.NewErrorHandler[handler.Context](nil, conflictMapper)

		req := httptest.NewRequest(http.MethodGet, "/bookings/stream", nil)
		req.Header.Set("Accept", "text/event-stream")
		rec := httptest.NewRecorder()

		eh(handler.NewContext(rec, req), errConflict)

		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "datastar-patch-signals")
		assert.Contains(t, rec.Body.String(), "stale_state")
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		t.Parallel()
		eh := handler.NewErrorHandler[handler.Context](nil)
		rec := httptest.NewRecorder()

		eh(handler.NewContext(rec, httptest.NewRequest(http.MethodGet, "/", nil)), nil)
		assert.Zero(t, rec.Body.Len())
	})
}
