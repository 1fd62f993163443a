package handler

import (
	"errors"
	"net/http"
)

var (
	ErrNilResponse       = errors.New("handler returned nil response")
	ErrSSENotInitialized = errors.New("event stream not initialized for this request")
)

// HTTPError carries an HTTP status and the machine-readable code written to
// the error body. It is matched with errors.As, so it may be wrapped.
type HTTPError struct {
	Code int
	Key  string
}

func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest           = NewHTTPError(http.StatusBadRequest, "bad_request")
	ErrForbidden            = NewHTTPError(http.StatusForbidden, "forbidden")
	ErrNotFound             = NewHTTPError(http.StatusNotFound, "not_found")
	ErrSSERequired          = NewHTTPError(http.StatusBadRequest, "sse_required")
	ErrUnsupportedMediaType = NewHTTPError(http.StatusUnsupportedMediaType, "unsupported_media_type")
	ErrInternal             = NewHTTPError(http.StatusInternalServerError, "internal_error")
)
