package booking_test

import (
	"testing"

	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/booking/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(*testing.T) booking.Store {
		return booking.NewMemoryStore()
	})
}
