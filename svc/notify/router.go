package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/flamingonails/bookings/pkg/validator"
	"github.com/flamingonails/bookings/svc/booking"
)

// Kind is the shape of a recipient address.
type Kind string

const (
	KindEmail   Kind = "email"
	KindPhone   Kind = "phone"
	KindUnknown Kind = "unknown"
)

// Classify reports whether to is an email address or a phone number.
func Classify(to string) Kind {
	to = strings.TrimSpace(to)
	switch {
	case validator.IsEmail(to):
		return KindEmail
	case validator.IsPhone(to):
		return KindPhone
	default:
		return KindUnknown
	}
}

// Router is a booking.Gateway that dispatches on the recipient shape.
type Router struct {
	email booking.Gateway
	chat  booking.Gateway
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithEmail routes email addresses to g.
func WithEmail(g booking.Gateway) RouterOption {
	return func(r *Router) { r.email = g }
}

// WithChat routes phone numbers to g.
func WithChat(g booking.Gateway) RouterOption {
	return func(r *Router) { r.chat = g }
}

func NewRouter(opts ...RouterOption) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Send(ctx context.Context, channel string, tmpl booking.Template, msg booking.Message) error {
	kind := Classify(channel)
	var target booking.Gateway
	switch kind {
	case KindEmail:
		target = r.email
	case KindPhone:
		target = r.chat
		channel = validator.NormalizePhone(channel)
	default:
		return delivery(msg.BookingID, fmt.Errorf("%w: %q", ErrUnsupportedChannel, channel))
	}
	if target == nil {
		return delivery(msg.BookingID, fmt.Errorf("%w: %s", ErrChannelNotConfigured, kind))
	}
	return target.Send(ctx, strings.TrimSpace(channel), tmpl, msg)
}

var _ booking.Gateway = (*Router)(nil)
