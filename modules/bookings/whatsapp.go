package bookings

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/flamingonails/bookings/handler"
	"github.com/flamingonails/bookings/pkg/binder"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/pkg/validator"
	"github.com/flamingonails/bookings/pkg/webhook"
	"github.com/flamingonails/bookings/svc/booking"
)

// WhatsAppCallback is posted by the n8n workflow when staff reply to the
// intake message in WhatsApp.
type WhatsAppCallback struct {
	BookingID string `json:"bookingId"`
	NewDate   string `json:"newDate,omitempty"`
	NewTime   string `json:"newTime,omitempty"`
}

func (c WhatsAppCallback) validate(op string) error {
	err := validator.Apply(validator.RequiredString("bookingId", strings.TrimSpace(c.BookingID)))
	if err != nil {
		return booking.NewError(booking.ErrValidation, op, "", err)
	}
	return nil
}

func (m *Module) whatsAppConfirm(ctx handler.Context, req WhatsAppCallback) handler.Response {
	if err := req.validate("whatsapp.confirm"); err != nil {
		return handler.Fail(err)
	}
	return m.callback(ctx, req, booking.EventStaffConfirm, booking.Params{})
}

func (m *Module) whatsAppRebook(ctx handler.Context, req WhatsAppCallback) handler.Response {
	if err := req.validate("whatsapp.rebook"); err != nil {
		return handler.Fail(err)
	}
	return m.callback(ctx, req, booking.EventStaffRebook, booking.Params{NewTime: req.NewTime, NewDate: req.NewDate})
}

func (m *Module) callback(ctx handler.Context, req WhatsAppCallback, event booking.Event, params booking.Params) handler.Response {
	res, err := m.engine.RequestTransition(ctx, strings.TrimSpace(req.BookingID), event, ActorWhatsApp, params)
	if err != nil {
		return handler.Fail(err)
	}
	meta := resultMeta(res)
	meta["success"] = true
	return handler.JSON(res.Booking, handler.WithJSONMeta(meta))
}

// verifyWebhook checks the HMAC signature of n8n callbacks when a secret is configured.
func (m *Module) verifyWebhook(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.webhookSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, binder.DefaultMaxJSONSize+1))
		if err != nil {
			m.errorHandler(handler.NewContext(w, r), fmt.Errorf("%w: %v", binder.ErrFailedToParseJSON, err))
			return
		}
		if err := webhook.VerifyRequest(m.webhookSecret, r, body, m.webhookMaxAge); err != nil {
			m.log.WarnContext(r.Context(), "rejected unsigned callback",
				logger.Handler(r.URL.Path), logger.Error(err))
			m.errorHandler(handler.NewContext(w, r), fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}
