package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flamingonails/bookings/pkg/email"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/svc/booking"
)

// EmailChannel sends notifications as HTML email.
type EmailChannel struct {
	sender email.EmailSender
	salon  string
}

// NewEmailChannel sends through sender and signs messages with salon.
func NewEmailChannel(sender email.EmailSender, salon string) *EmailChannel {
	return &EmailChannel{sender: sender, salon: salon}
}

func (c *EmailChannel) Send(ctx context.Context, to string, tmpl booking.Template, msg booking.Message) error {
	content, err := Compose(tmpl, msg)
	if err != nil {
		return delivery(msg.BookingID, err)
	}
	body, err := email.Render(ctx, emailBody(c.salon, content))
	if err != nil {
		return delivery(msg.BookingID, fmt.Errorf("render %s: %w", tmpl, err))
	}

	err = c.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  content.Subject,
		BodyHTML: body,
		BodyText: content.Text(),
		Tag:      string(tmpl),
	})
	if err != nil {
		return delivery(msg.BookingID, err)
	}
	return nil
}

// LogChannel logs every notification instead of delivering it.
type LogChannel struct {
	log *slog.Logger
}

func NewLogChannel(log *slog.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (c *LogChannel) Send(ctx context.Context, to string, tmpl booking.Template, msg booking.Message) error {
	content, err := Compose(tmpl, msg)
	if err != nil {
		return delivery(msg.BookingID, err)
	}
	c.log.InfoContext(ctx, "notification",
		logger.BookingID(msg.BookingID),
		logger.Channel(to),
		logger.Template(string(tmpl)),
		slog.String("text", content.Text()),
	)
	return nil
}

func delivery(bookingID string, err error) error {
	return booking.NewError(booking.ErrDeliveryFailed, "notify", bookingID, err)
}
