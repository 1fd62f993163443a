package pgstore

import (
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/flamingonails/bookings/svc/booking"
)

const bookingColumns = `id, customer_contact, customer_name, service_name, requested_date, requested_time,
	status, partition_name, version, lineage, superseded_by, created_at, updated_at, updated_by,
	completed_at, voided_at, voided_by, void_reason`

const (
	selectBooking = `SELECT ` + bookingColumns + ` FROM bookings`

	insertBooking = `INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	updateBooking = `UPDATE bookings SET
		customer_name = $3,
		requested_date = $4,
		requested_time = $5,
		status = $6,
		partition_name = $7,
		version = $8,
		superseded_by = $9,
		updated_at = $10,
		updated_by = $11,
		completed_at = $12,
		voided_at = $13,
		voided_by = $14,
		void_reason = $15
	WHERE id = $1 AND version = $2`
)

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		b                     booking.Booking
		status, partition     string
		voidReason            string
		lineage               *string
		completedAt, voidedAt *time.Time
	)
	err := row.Scan(
		&b.ID,
		&b.CustomerContact,
		&b.CustomerName,
		&b.ServiceName,
		&b.RequestedDate,
		&b.RequestedTime,
		&status,
		&partition,
		&b.Version,
		&lineage,
		&b.SupersededBy,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.UpdatedBy,
		&completedAt,
		&voidedAt,
		&b.VoidedBy,
		&voidReason,
	)
	if err != nil {
		return nil, err
	}
	b.Status = booking.Status(status)
	b.Partition = booking.Partition(partition)
	b.VoidReason = booking.VoidReason(voidReason)
	if lineage != nil {
		b.Lineage = *lineage
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	b.CompletedAt = utc(completedAt)
	b.VoidedAt = utc(voidedAt)
	return &b, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
