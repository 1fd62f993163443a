package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/validator"
	"github.com/flamingonails/bookings/svc/booking"
)

func TestIntakeSubmitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mutate     func(r *booking.SubmitRequest)
		wantFields []string
	}{
		{
			name:       "all empty",
			mutate:     func(r *booking.SubmitRequest) { *r = booking.SubmitRequest{} },
			wantFields: []string{"customer_contact", "customer_name", "service_name", "date", "time"},
		},
		{
			name:       "whitespace only name",
			mutate:     func(r *booking.SubmitRequest) { r.CustomerName = "   " },
			wantFields: []string{"customer_name"},
		},
		{
			name:       "contact neither email nor phone",
			mutate:     func(r *booking.SubmitRequest) { r.CustomerContact = "anu at home" },
			wantFields: []string{"customer_contact"},
		},
		{
			name:       "missing time",
			mutate:     func(r *booking.SubmitRequest) { r.Time = "" },
			wantFields: []string{"time"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			req := scenarioRequest()
			tt.mutate(&req)

			_, err := f.intake.Submit(t.Context(), req, "web")
			require.ErrorIs(t, err, booking.ErrValidation)
			assert.Equal(t, "validation_error", booking.Kind(err))

			ve := validator.Extract(err)
			require.NotNil(t, ve)
			assert.Equal(t, tt.wantFields, ve.Fields())

			active, err := booking.Collect(booking.ListActive(t.Context(), f.store, booking.Filter{}))
			require.NoError(t, err)
			assert.Empty(t, active)
			assert.Empty(t, f.gateway.calls())
		})
	}
}

func TestIntakeNormalizesInput(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.intake.Submit(t.Context(), booking.SubmitRequest{
		CustomerContact: " +91 82965-84278 ",
		CustomerName:    " Anu ",
		ServiceName:     "Nail Art",
		Date:            "tomorrow",
		Time:            "after lunch",
	}, "whatsapp")
	require.NoError(t, err)

	b := res.Booking
	assert.Equal(t, "+918296584278", b.CustomerContact)
	assert.Equal(t, "Anu", b.CustomerName)
	assert.Equal(t, "tomorrow", b.RequestedDate, "date semantics are not validated")
	assert.Equal(t, "after lunch", b.RequestedTime)

	res, err = f.intake.Submit(t.Context(), booking.SubmitRequest{
		CustomerContact: "Anu@X.com",
		CustomerName:    "Anu",
		ServiceName:     "Manicure",
		Date:            "2025-11-10",
		Time:            "15:30",
	}, "web")
	require.NoError(t, err)
	assert.Equal(t, "anu@x.com", res.Booking.CustomerContact)
}
