package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/flamingonails/bookings/svc/booking"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

var statusColors = map[booking.Status]*color.Color{
	booking.StatusPending:         color.New(color.FgYellow),
	booking.StatusConfirmed:       color.New(color.FgGreen),
	booking.StatusRebookSuggested: color.New(color.FgCyan),
	booking.StatusCancelled:       color.New(color.FgRed),
	booking.StatusFinalConfirmed:  color.New(color.FgGreen, color.Bold),
	booking.StatusCompleted:       color.New(color.FgBlue),
}

// statusWidth pads status columns to the longest status name.
const statusWidth = len(booking.StatusRebookSuggested)

func colorStatus(s booking.Status) string {
	text := fmt.Sprintf("%-*s", statusWidth, s)
	if c, ok := statusColors[s]; ok {
		return c.Sprint(text)
	}
	return text
}

func successf(w io.Writer, format string, a ...any) {
	_, _ = successColor.Fprintf(w, "✓ "+format, a...)
}

func warnf(w io.Writer, format string, a ...any) {
	_, _ = warnColor.Fprintf(w, "! "+format, a...)
}

func infof(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}

func printBookings(w io.Writer, records []*booking.Booking) {
	_, _ = headerColor.Fprintf(w, "%-36s  %-*s  %-10s  %-5s  %-20s  %s\n",
		"ID", statusWidth, "STATUS", "DATE", "TIME", "SERVICE", "CUSTOMER")
	for _, b := range records {
		_, _ = fmt.Fprintf(w, "%-36s  %s  %-10s  %-5s  %-20s  %s",
			b.ID, colorStatus(b.Status), b.RequestedDate, b.RequestedTime, b.ServiceName, b.CustomerName)
		if b.Lineage != "" {
			_, _ = dimColor.Fprintf(w, "  (rebook of %s)", b.Lineage)
		}
		_, _ = fmt.Fprintln(w)
	}
}
