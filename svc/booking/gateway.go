package booking

import "context"

// Template names a notification message.
type Template string

const (
	TemplateBookingRequested      Template = "booking_requested"
	TemplateBookingConfirmed      Template = "booking_confirmed"
	TemplateBookingRejected       Template = "booking_rejected"
	TemplateBookingRebooked       Template = "booking_rebooked"
	TemplateBookingFinalConfirmed Template = "booking_final_confirmed"
)

// Templates lists every notification template.
var Templates = []Template{
	TemplateBookingRequested,
	TemplateBookingConfirmed,
	TemplateBookingRejected,
	TemplateBookingRebooked,
	TemplateBookingFinalConfirmed,
}

// Message is the booking snapshot a template renders.
type Message struct {
	BookingID       string `json:"booking_id"`
	CustomerName    string `json:"customer_name"`
	CustomerContact string `json:"customer_contact"`
	ServiceName     string `json:"service_name"`
	RequestedDate   string `json:"requested_date"`
	RequestedTime   string `json:"requested_time"`
	Status          Status `json:"status"`

	// Set for rebook notifications.
	PreviousID   string `json:"previous_id,omitempty"`
	PreviousDate string `json:"previous_date,omitempty"`
	PreviousTime string `json:"previous_time,omitempty"`
}

// MessageFor snapshots b.
func MessageFor(b *Booking) Message {
	return Message{
		BookingID:       b.ID,
		CustomerName:    b.CustomerName,
		CustomerContact: b.CustomerContact,
		ServiceName:     b.ServiceName,
		RequestedDate:   b.RequestedDate,
		RequestedTime:   b.RequestedTime,
		Status:          b.Status,
	}
}

// Gateway delivers a templated message to a channel: an email address or a
// phone number. Send makes a single attempt and wraps failures with
// ErrDeliveryFailed.
type Gateway interface {
	Send(ctx context.Context, channel string, tmpl Template, msg Message) error
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, channel string, tmpl Template, msg Message) error

func (f GatewayFunc) Send(ctx context.Context, channel string, tmpl Template, msg Message) error {
	return f(ctx, channel, tmpl, msg)
}

type nopGateway struct{}

func (nopGateway) Send(context.Context, string, Template, Message) error { return nil }
