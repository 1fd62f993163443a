// Package pgstore is a booking.Store backed by PostgreSQL through a pgx pool.
//
// Partitions are a column of one bookings table. Writes are version-guarded
// single-row updates, so no explicit transaction is held across a request.
package pgstore

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flamingonails/bookings/pkg/pg"
	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/booking/store/pgstore/migrations"
)

// maxAttempts bounds how often a write re-reads a record that changed
// between its read and its version-guarded update.
const maxAttempts = 3

// Store persists bookings in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for store-owned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New wraps an open pool. The schema must already be migrated, see Migrate.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, cfg, migrations.FS, log)
}

// Healthcheck pings the pool.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := pg.Healthcheck(s.pool)(ctx); err != nil {
		return booking.NewError(booking.ErrStorageUnavailable, "healthcheck", "", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, b *booking.Booking) (string, error) {
	const op = "create"
	rec, err := booking.PrepareCreate(b, s.now())
	if err != nil {
		return "", err
	}

	_, err = s.pool.Exec(ctx, insertBooking,
		rec.ID,
		rec.CustomerContact,
		rec.CustomerName,
		rec.ServiceName,
		rec.RequestedDate,
		rec.RequestedTime,
		string(rec.Status),
		string(rec.Partition),
		rec.Version,
		nullString(rec.Lineage),
		rec.SupersededBy,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.UpdatedBy,
		rec.CompletedAt,
		rec.VoidedAt,
		rec.VoidedBy,
		string(rec.VoidReason),
	)
	switch {
	case err == nil:
		return rec.ID, nil
	case pg.IsDuplicateKeyError(err):
		return "", booking.NewError(booking.ErrDuplicateID, op, rec.ID, nil)
	case pg.IsForeignKeyError(err):
		return "", booking.Errorf(booking.ErrValidation, op, rec.ID, "lineage %s does not exist", rec.Lineage)
	case pg.IsCheckViolationError(err):
		return "", booking.NewError(booking.ErrValidation, op, rec.ID, err)
	default:
		return "", booking.NewError(booking.ErrStorageUnavailable, op, rec.ID, err)
	}
}

func (s *Store) Get(ctx context.Context, id string) (*booking.Booking, error) {
	return s.get(ctx, "get", id)
}

func (s *Store) get(ctx context.Context, op, id string) (*booking.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, selectBooking+` WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, booking.NewError(booking.ErrNotFound, op, id, nil)
	}
	if err != nil {
		return nil, booking.NewError(booking.ErrStorageUnavailable, op, id, err)
	}
	return b, nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, id string, expected booking.Status, mutate func(*booking.Booking) error) (*booking.Booking, error) {
	const op = "conditional update"
	for range maxAttempts {
		current, err := s.get(ctx, op, id)
		if err != nil {
			return nil, err
		}
		next, err := booking.ApplyUpdate(current, expected, mutate)
		if err != nil {
			return nil, err
		}
		ok, err := s.write(ctx, next, current.Version)
		if err != nil {
			return nil, booking.NewError(booking.ErrStorageUnavailable, op, id, err)
		}
		if ok {
			return next, nil
		}
	}
	return nil, booking.Errorf(booking.ErrStaleState, op, id, "booking changed concurrently")
}

func (s *Store) MoveToPartition(ctx context.Context, id string, target booking.Partition) (*booking.Booking, error) {
	const op = "move"
	for range maxAttempts {
		current, err := s.get(ctx, op, id)
		if err != nil {
			return nil, err
		}
		next, changed, err := booking.ApplyMove(current, target, s.now())
		if err != nil || !changed {
			return next, err
		}
		ok, err := s.write(ctx, next, current.Version)
		if err != nil {
			return nil, booking.NewError(booking.ErrStorageUnavailable, op, id, err)
		}
		if ok {
			return next, nil
		}
	}
	return nil, booking.Errorf(booking.ErrStaleState, op, id, "booking kept changing during the move")
}

// List runs one statement per range, which PostgreSQL answers from a single
// snapshot. Rows are buffered before the first yield.
func (s *Store) List(ctx context.Context, filter booking.Filter) iter.Seq2[*booking.Booking, error] {
	return func(yield func(*booking.Booking, error) bool) {
		where, args := filterClause(filter)
		rows, err := s.pool.Query(ctx, selectBooking+where+` ORDER BY created_at, id`, args...)
		if err != nil {
			yield(nil, booking.NewError(booking.ErrStorageUnavailable, "list", "", err))
			return
		}
		out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*booking.Booking, error) {
			return scanBooking(row)
		})
		if err != nil {
			yield(nil, booking.NewError(booking.ErrStorageUnavailable, "list", "", err))
			return
		}
		for _, b := range out {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (s *Store) write(ctx context.Context, next *booking.Booking, version int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, updateBooking,
		next.ID,
		version,
		next.CustomerName,
		next.RequestedDate,
		next.RequestedTime,
		string(next.Status),
		string(next.Partition),
		next.Version,
		next.SupersededBy,
		next.UpdatedAt,
		next.UpdatedBy,
		next.CompletedAt,
		next.VoidedAt,
		next.VoidedBy,
		string(next.VoidReason),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func filterClause(f booking.Filter) (string, []any) {
	args := []any{string(f.PartitionOrDefault())}
	conds := []string{"partition_name = $1"}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}
	if f.CustomerContact != "" {
		add("customer_contact = $%d", f.CustomerContact)
	}
	if f.RequestedDate != "" {
		add("requested_date = $%d", f.RequestedDate)
	}
	if f.Lineage != "" {
		add("lineage = $%d", f.Lineage)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var _ booking.Store = (*Store)(nil)
