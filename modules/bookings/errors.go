package bookings

import (
	"errors"
	"net/http"

	"github.com/flamingonails/bookings/handler"
	"github.com/flamingonails/bookings/pkg/validator"
	"github.com/flamingonails/bookings/svc/booking"
)

var (
	// ErrRoleNotEntitled is returned when the actor's role may not issue the event.
	ErrRoleNotEntitled = errors.New("role may not issue this event")
	// ErrInvalidWebhookSignature is returned for n8n callbacks failing verification.
	ErrInvalidWebhookSignature = handler.NewHTTPError(http.StatusUnauthorized, "invalid_signature")
	// ErrRateLimited is returned when a client submits bookings too quickly.
	ErrRateLimited = handler.NewHTTPError(http.StatusTooManyRequests, "rate_limited")
)

var kindStatus = map[string]int{
	"validation_error":    http.StatusUnprocessableEntity,
	"missing_parameter":   http.StatusBadRequest,
	"not_found":           http.StatusNotFound,
	"invalid_transition":  http.StatusConflict,
	"stale_state":         http.StatusConflict,
	"duplicate_id":        http.StatusConflict,
	"storage_unavailable": http.StatusServiceUnavailable,
	"delivery_failed":     http.StatusBadGateway,
}

// MapBookingError translates *booking.Error values for handler.NewErrorHandler.
func MapBookingError(err error) (handler.MappedError, bool) {
	if errors.Is(err, ErrRoleNotEntitled) {
		return handler.MappedError{
			Status: http.StatusForbidden,
			Detail: &handler.ErrorDetail{Code: handler.ErrForbidden.Key, Message: err.Error()},
		}, true
	}

	var be *booking.Error
	if !errors.As(err, &be) {
		return handler.MappedError{}, false
	}

	kind := booking.Kind(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	detail := &handler.ErrorDetail{Code: kind, Message: booking.ErrorMessage(err)}
	if ve := validator.Extract(err); ve != nil {
		detail.Details = ve.Map()
	}

	mapped := handler.MappedError{Status: status, Detail: detail}
	if be.BookingID != "" {
		mapped.Meta = map[string]any{"booking_id": be.BookingID}
	}
	return mapped, true
}
