package logger

import (
	"log/slog"
	"time"
)

// Keys shared by every component of the booking service. Helpers given an
// empty value return the zero Attr, which slog drops.

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func RequestID(id string) slog.Attr { return str("request_id", id) }

func BookingID(id string) slog.Attr { return str("booking_id", id) }

// Lineage is the booking a rebook replaced.
func Lineage(id string) slog.Attr { return str("lineage", id) }

func Actor(actor string) slog.Attr { return str("actor", actor) }

// Status groups both ends of a transition as status.from and status.to.
func Status(from, to string) slog.Attr {
	return slog.Group("status", slog.String("from", from), slog.String("to", to))
}

func Partition(name string) slog.Attr { return str("partition", name) }
func Channel(name string) slog.Attr   { return str("channel", name) }
func Template(name string) slog.Attr  { return str("template", name) }
func Component(name string) slog.Attr { return str("component", name) }
func Event(name string) slog.Attr     { return str("event", name) }
func Handler(name string) slog.Attr   { return str("handler", name) }

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

func str(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}
