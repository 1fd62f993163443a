package booking

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrMissingParameter   = errors.New("missing parameter")
	ErrNotFound           = errors.New("booking not found")
	ErrStaleState         = errors.New("stale state")
	ErrDeliveryFailed     = errors.New("delivery failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrDuplicateID        = errors.New("duplicate booking id")
)

var kindCodes = []struct {
	kind error
	code string
}{
	{ErrValidation, "validation_error"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrMissingParameter, "missing_parameter"},
	{ErrNotFound, "not_found"},
	{ErrStaleState, "stale_state"},
	{ErrDuplicateID, "duplicate_id"},
	{ErrStorageUnavailable, "storage_unavailable"},
	{ErrDeliveryFailed, "delivery_failed"},
}

// Error is a failed booking operation.
type Error struct {
	Kind      error
	BookingID string
	Op        string
	Err       error
}

// NewError builds an Error. err may be nil.
func NewError(kind error, op, bookingID string, err error) *Error {
	return &Error{Kind: kind, BookingID: bookingID, Op: op, Err: err}
}

// Errorf builds an Error with a formatted cause.
func Errorf(kind error, op, bookingID, format string, args ...any) *Error {
	return NewError(kind, op, bookingID, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.BookingID != "" {
		msg = "booking " + e.BookingID + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Kind returns the machine-readable kind code of err, or "internal_error".
// The outermost *Error decides when several kinds are wrapped.
func Kind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		err = e.Kind
	}
	for _, kc := range kindCodes {
		if errors.Is(err, kc.kind) {
			return kc.code
		}
	}
	return "internal_error"
}

// BookingIDOf returns the booking id carried by err, if any.
func BookingIDOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.BookingID
	}
	return ""
}

// ErrorMessage renders err for people, naming the booking for support.
func ErrorMessage(err error) string {
	var text string
	switch Kind(err) {
	case "validation_error":
		text = "The booking request is incomplete or malformed."
	case "missing_parameter":
		text = "A required value for this action is missing."
	case "invalid_transition":
		text = "This action is not allowed in the booking's current state."
	case "not_found":
		text = "The booking could not be found."
	case "stale_state":
		text = "The booking was changed by someone else. Reload it and try again."
	case "duplicate_id":
		text = "A booking with this id already exists."
	case "storage_unavailable":
		text = "Bookings are temporarily unavailable. Try again shortly."
	case "delivery_failed":
		text = "The notification could not be delivered."
	default:
		text = "Something went wrong."
	}
	if id := BookingIDOf(err); id != "" {
		text += " (booking " + id + ")"
	}
	return text
}
