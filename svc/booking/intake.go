package booking

import (
	"context"
	"strings"

	"github.com/flamingonails/bookings/pkg/validator"
)

// Field length limits applied at intake.
const (
	maxNameLen    = 120
	maxServiceLen = 120
	maxContactLen = 254
	maxSlotLen    = 32
)

// SubmitRequest is a new booking as entered by a customer or the receptionist.
type SubmitRequest struct {
	CustomerContact string `json:"customer_contact"`
	CustomerName    string `json:"customer_name"`
	ServiceName     string `json:"service_name"`
	Date            string `json:"date"`
	Time            string `json:"time"`
}

// Normalize trims every field and canonicalizes the contact: emails are
// lower-cased, phone numbers lose their separators.
func (r SubmitRequest) Normalize() SubmitRequest {
	r.CustomerContact = strings.TrimSpace(r.CustomerContact)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.ServiceName = strings.TrimSpace(r.ServiceName)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)

	switch {
	case validator.IsEmail(r.CustomerContact):
		r.CustomerContact = strings.ToLower(r.CustomerContact)
	case validator.IsPhone(r.CustomerContact):
		r.CustomerContact = validator.NormalizePhone(r.CustomerContact)
	}
	return r
}

// Validate checks the shape of r. Date and time are only required to be non-empty.
func (r SubmitRequest) Validate() error {
	return validator.Apply(
		validator.RequiredString("customer_contact", r.CustomerContact),
		validator.When(r.CustomerContact != "", validator.ValidContact("customer_contact", r.CustomerContact)),
		validator.MaxLenString("customer_contact", r.CustomerContact, maxContactLen),
		validator.RequiredString("customer_name", r.CustomerName),
		validator.MaxLenString("customer_name", r.CustomerName, maxNameLen),
		validator.RequiredString("service_name", r.ServiceName),
		validator.MaxLenString("service_name", r.ServiceName, maxServiceLen),
		validator.RequiredString("date", r.Date),
		validator.MaxLenString("date", r.Date, maxSlotLen),
		validator.RequiredString("time", r.Time),
		validator.MaxLenString("time", r.Time, maxSlotLen),
	)
}

// Intake validates new booking requests and hands them to the engine.
type Intake struct {
	engine *Engine
}

func NewIntake(engine *Engine) *Intake {
	return &Intake{engine: engine}
}

// Submit validates req and creates a pending booking.
func (i *Intake) Submit(ctx context.Context, req SubmitRequest, actor string) (*Result, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewError(ErrValidation, "submit", "", err)
	}

	return i.engine.Intake(ctx, &Booking{
		CustomerContact: req.CustomerContact,
		CustomerName:    req.CustomerName,
		ServiceName:     req.ServiceName,
		RequestedDate:   req.Date,
		RequestedTime:   req.Time,
	}, actor)
}
