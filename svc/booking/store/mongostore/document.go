package mongostore

import (
	"time"

	"github.com/flamingonails/bookings/svc/booking"
)

// document is the stored shape of a booking.
type document struct {
	ID              string     `bson:"_id"`
	CustomerContact string     `bson:"customer_contact"`
	CustomerName    string     `bson:"customer_name"`
	ServiceName     string     `bson:"service_name"`
	RequestedDate   string     `bson:"requested_date"`
	RequestedTime   string     `bson:"requested_time"`
	Status          string     `bson:"status"`
	Partition       string     `bson:"partition"`
	Version         int64      `bson:"version"`
	Lineage         string     `bson:"lineage,omitempty"`
	SupersededBy    string     `bson:"superseded_by,omitempty"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
	UpdatedBy       string     `bson:"updated_by,omitempty"`
	CompletedAt     *time.Time `bson:"completed_at,omitempty"`
	VoidedAt        *time.Time `bson:"voided_at,omitempty"`
	VoidedBy        string     `bson:"voided_by,omitempty"`
	VoidReason      string     `bson:"void_reason,omitempty"`
}

func toDocument(b *booking.Booking) document {
	return document{
		ID:              b.ID,
		CustomerContact: b.CustomerContact,
		CustomerName:    b.CustomerName,
		ServiceName:     b.ServiceName,
		RequestedDate:   b.RequestedDate,
		RequestedTime:   b.RequestedTime,
		Status:          string(b.Status),
		Partition:       string(b.Partition),
		Version:         b.Version,
		Lineage:         b.Lineage,
		SupersededBy:    b.SupersededBy,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
		UpdatedBy:       b.UpdatedBy,
		CompletedAt:     b.CompletedAt,
		VoidedAt:        b.VoidedAt,
		VoidedBy:        b.VoidedBy,
		VoidReason:      string(b.VoidReason),
	}
}

func (d document) booking() *booking.Booking {
	return &booking.Booking{
		ID:              d.ID,
		CustomerContact: d.CustomerContact,
		CustomerName:    d.CustomerName,
		ServiceName:     d.ServiceName,
		RequestedDate:   d.RequestedDate,
		RequestedTime:   d.RequestedTime,
		Status:          booking.Status(d.Status),
		Partition:       booking.Partition(d.Partition),
		Version:         d.Version,
		Lineage:         d.Lineage,
		SupersededBy:    d.SupersededBy,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
		UpdatedBy:       d.UpdatedBy,
		CompletedAt:     utc(d.CompletedAt),
		VoidedAt:        utc(d.VoidedAt),
		VoidedBy:        d.VoidedBy,
		VoidReason:      booking.VoidReason(d.VoidReason),
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
