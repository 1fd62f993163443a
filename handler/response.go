package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"

	"github.com/flamingonails/bookings/pkg/binder"
	"github.com/flamingonails/bookings/pkg/validator"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail is the error member of the envelope.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption adjusts a JSON response.
type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(j *jsonResponse) { j.status = status }
}

// WithJSONMeta merges meta into the envelope. Later keys win.
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(j *jsonResponse) {
		if len(meta) == 0 {
			return
		}
		if j.body.Meta == nil {
			j.body.Meta = make(map[string]any, len(meta))
		}
		maps.Copy(j.body.Meta, meta)
	}
}

// JSON writes v as the data member with status 200. An error value is
// written as JSONError would write it.
func JSON(v any, opts ...JSONOption) Response {
	if err, ok := v.(error); ok {
		return JSONError(err, opts...)
	}
	return build(&jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}, opts)
}

// JSONError writes err as the error member. err may be an error or an
// *ErrorDetail; the latter defaults to status 500.
func JSONError(err any, opts ...JSONOption) Response {
	j := &jsonResponse{status: http.StatusInternalServerError}
	switch e := err.(type) {
	case *ErrorDetail:
		j.body.Error = e
	case error:
		j.status, j.body.Error = translate(e)
	default:
		j.body.Error = &ErrorDetail{Code: ErrInternal.Key}
	}
	return build(j, opts)
}

func build(j *jsonResponse, opts []JSONOption) Response {
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// translate maps the errors every module shares onto a status and detail.
// Messages of unrecognised errors are not exposed.
func translate(err error) (int, *ErrorDetail) {
	if ve := validator.Extract(err); ve != nil {
		return http.StatusUnprocessableEntity, &ErrorDetail{
			Code:    "validation_error",
			Message: ve.Error(),
			Details: ve.Map(),
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	}

	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, &ErrorDetail{Code: ErrUnsupportedMediaType.Key, Message: err.Error()}
	case errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrFailedToParsePath):
		return http.StatusBadRequest, &ErrorDetail{Code: ErrBadRequest.Key, Message: err.Error()}
	}
	return http.StatusInternalServerError, &ErrorDetail{
		Code:    ErrInternal.Key,
		Message: http.StatusText(http.StatusInternalServerError),
	}
}

// Fail hands err to the error handler configured on Wrap instead of
// rendering a body.
func Fail(err error) Response {
	if err == nil {
		err = ErrInternal
	}
	return failure{err}
}

type failure struct{ err error }

func (f failure) Render(http.ResponseWriter, *http.Request) error { return f.err }
