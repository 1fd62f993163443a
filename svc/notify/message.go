package notify

import (
	"fmt"
	"strings"

	"github.com/flamingonails/bookings/svc/booking"
)

// Content is a rendered notification.
type Content struct {
	Subject string
	Lines   []string
}

// Text joins the subject and lines into a chat message.
func (c Content) Text() string {
	return "*" + c.Subject + "*\n" + strings.Join(c.Lines, "\n")
}

// Compose renders tmpl for msg.
func Compose(tmpl booking.Template, msg booking.Message) (Content, error) {
	details := []string{
		"Customer: " + orNA(msg.CustomerName),
		"Contact: " + orNA(msg.CustomerContact),
		"Service: " + msg.ServiceName,
		"Date: " + msg.RequestedDate,
		"Time: " + msg.RequestedTime,
		"Booking ID: " + msg.BookingID,
	}

	switch tmpl {
	case booking.TemplateBookingRequested:
		return Content{
			Subject: "New booking request",
			Lines: append(details, "",
				fmt.Sprintf("Reply Confirm %s or Rebook %s in WhatsApp.", msg.BookingID, msg.BookingID),
			),
		}, nil

	case booking.TemplateBookingConfirmed:
		return Content{
			Subject: "Your booking is confirmed",
			Lines: []string{
				fmt.Sprintf("Hi %s, your %s appointment on %s at %s is confirmed.",
					greetName(msg.CustomerName), msg.ServiceName, msg.RequestedDate, msg.RequestedTime),
				"Booking ID: " + msg.BookingID,
			},
		}, nil

	case booking.TemplateBookingRejected:
		return Content{
			Subject: "We could not take your booking",
			Lines: []string{
				fmt.Sprintf("Hi %s, we are sorry but the %s slot on %s at %s is not available.",
					greetName(msg.CustomerName), msg.ServiceName, msg.RequestedDate, msg.RequestedTime),
				"Booking ID: " + msg.BookingID,
			},
		}, nil

	case booking.TemplateBookingRebooked:
		lines := []string{
			fmt.Sprintf("Hi %s, we suggested a new time for your %s appointment.",
				greetName(msg.CustomerName), msg.ServiceName),
		}
		if msg.PreviousDate != "" || msg.PreviousTime != "" {
			lines = append(lines, fmt.Sprintf("Requested: %s at %s", msg.PreviousDate, msg.PreviousTime))
		}
		lines = append(lines,
			fmt.Sprintf("Suggested: %s at %s", msg.RequestedDate, msg.RequestedTime),
			"New booking ID: "+msg.BookingID,
		)
		if msg.PreviousID != "" {
			lines = append(lines, "Previous booking ID: "+msg.PreviousID)
		}
		return Content{Subject: "We suggested a new time for your booking", Lines: lines}, nil

	case booking.TemplateBookingFinalConfirmed:
		return Content{
			Subject: "Customer confirmed the booking",
			Lines:   details,
		}, nil
	}

	return Content{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, tmpl)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func greetName(s string) string {
	if strings.TrimSpace(s) == "" {
		return "there"
	}
	return s
}
