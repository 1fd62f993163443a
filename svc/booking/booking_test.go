package booking_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flamingonails/bookings/svc/booking"
)

func TestPartitionFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, booking.PartitionActive, booking.PartitionFor(booking.StatusPending))
	assert.Equal(t, booking.PartitionActive, booking.PartitionFor(booking.StatusConfirmed))
	assert.Equal(t, booking.PartitionActive, booking.PartitionFor(booking.StatusFinalConfirmed))
	assert.Equal(t, booking.PartitionArchived, booking.PartitionFor(booking.StatusCompleted))
	assert.Equal(t, booking.PartitionVoided, booking.PartitionFor(booking.StatusCancelled))
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	assert.Len(t, booking.Statuses, 6)
	for _, s := range booking.Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, booking.Status("rebooked").Valid())
	assert.False(t, booking.Status("").Valid())
}

func TestAllowedEvents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []booking.Event{
		booking.EventStaffConfirm,
		booking.EventStaffReject,
		booking.EventStaffRebook,
		booking.EventStaffCorrect,
	}, booking.AllowedEvents(booking.StatusPending))
	assert.Equal(t, []booking.Event{
		booking.EventStaffRebook,
		booking.EventStaffComplete,
		booking.EventCustomerFinalConfirm,
		booking.EventStaffCorrect,
	}, booking.AllowedEvents(booking.StatusConfirmed))
	assert.Equal(t, []booking.Event{booking.EventStaffCorrect}, booking.AllowedEvents(booking.StatusFinalConfirmed))
	assert.Empty(t, booking.AllowedEvents(booking.StatusCompleted))
	assert.Empty(t, booking.AllowedEvents(booking.StatusCancelled))

	assert.False(t, booking.CanTransition(t.Context(), booking.StatusPending, booking.EventStaffRebook, booking.Params{}))
	assert.True(t, booking.CanTransition(t.Context(), booking.StatusPending, booking.EventStaffRebook, booking.Params{NewTime: "10:00"}))
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := fmt.Errorf("handler: %w", booking.NewError(booking.ErrStorageUnavailable, "get", "bk-9", cause))

	assert.ErrorIs(t, err, booking.ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage_unavailable", booking.Kind(err))
	assert.Equal(t, "bk-9", booking.BookingIDOf(err))
	assert.Contains(t, err.Error(), "booking bk-9: get: storage unavailable: connection reset")
	assert.Contains(t, booking.ErrorMessage(err), "(booking bk-9)")

	// The outer kind wins when the cause carries another one.
	stale := booking.NewError(booking.ErrStaleState, "rebook", "bk-1", booking.NewError(booking.ErrNotFound, "get", "bk-2", nil))
	assert.Equal(t, "stale_state", booking.Kind(stale))

	assert.Equal(t, "internal_error", booking.Kind(errors.New("plain")))
	assert.Equal(t, "Something went wrong.", booking.ErrorMessage(errors.New("plain")))
}

func TestBookingClone(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 11, 10, 17, 0, 0, 0, time.UTC)
	b := &booking.Booking{ID: "bk-1", CompletedAt: &at}
	c := b.Clone()
	assert.Equal(t, b, c)
	assert.NotSame(t, b.CompletedAt, c.CompletedAt)
	assert.Nil(t, (*booking.Booking)(nil).Clone())
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	c := booking.NewCatalog()
	services := c.Services()
	assert.Len(t, services, len(booking.DefaultServices))

	services[0].Name = "changed"
	assert.Equal(t, "Nail Extension", c.Services()[0].Name)

	s, ok := c.Lookup("nail art")
	assert.True(t, ok)
	assert.Equal(t, "nail_art", s.ID)
	_, ok = c.Lookup("haircut")
	assert.False(t, ok)

	custom := booking.NewCatalog(booking.Service{ID: "mani", Name: "Classic Manicure", DurationMins: 45, Price: 499})
	assert.Len(t, custom.Services(), 1)
}
