package sqlitestore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/flamingonails/bookings/svc/booking"
)

const bookingColumns = `id, customer_contact, customer_name, service_name, requested_date, requested_time,
	status, partition_name, version, lineage, superseded_by, created_at, updated_at, updated_by,
	completed_at, voided_at, voided_by, void_reason`

const (
	selectBooking = `SELECT ` + bookingColumns + ` FROM bookings`

	insertBooking = `INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	updateBooking = `UPDATE bookings SET
		customer_name = ?,
		requested_date = ?,
		requested_time = ?,
		status = ?,
		partition_name = ?,
		version = ?,
		superseded_by = ?,
		updated_at = ?,
		updated_by = ?,
		completed_at = ?,
		voided_at = ?,
		voided_by = ?,
		void_reason = ?
	WHERE id = ? AND version = ?`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*booking.Booking, error) {
	var (
		b                     booking.Booking
		status, partition     string
		voidReason            string
		lineage               sql.NullString
		createdAt, updatedAt  int64
		completedAt, voidedAt sql.NullInt64
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
		&createdAt,
		&updatedAt,
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
	b.Lineage = lineage.String
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	b.CompletedAt = fromNullMillis(completedAt)
	b.VoidedAt = fromNullMillis(voidedAt)
	return &b, nil
}

// filterClause renders the WHERE clause of a list query.
func filterClause(f booking.Filter) (string, []any) {
	conds := []string{"partition_name = ?"}
	args := []any{string(f.PartitionOrDefault())}

	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if f.CustomerContact != "" {
		conds = append(conds, "customer_contact = ?")
		args = append(args, f.CustomerContact)
	}
	if f.RequestedDate != "" {
		conds = append(conds, "requested_date = ?")
		args = append(args, f.RequestedDate)
	}
	if f.Lineage != "" {
		conds = append(conds, "lineage = ?")
		args = append(args, f.Lineage)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
