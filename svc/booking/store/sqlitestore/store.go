// Package sqlitestore is a booking.Store backed by a single SQLite file.
//
// The three partitions share one table keyed by id, so an id can never be
// held twice and a relocation is a single-row update. Every write is guarded
// by the version the caller read.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/booking/store/sqlitestore/migrations"
)

// maxAttempts bounds how often a write re-reads a record that changed
// between its read and its version-guarded update.
const maxAttempts = 3

// Store persists bookings in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log *slog.Logger
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

// WithLogger sets the logger for migration output.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Open opens the database file at path and applies the embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations.FS)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		s.log.InfoContext(ctx, "migration applied",
			slog.String("path", r.Source.Path),
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Healthcheck pings the database.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return booking.NewError(booking.ErrStorageUnavailable, "healthcheck", "", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, b *booking.Booking) (string, error) {
	const op = "create"
	if err := ctx.Err(); err != nil {
		return "", booking.NewError(booking.ErrStorageUnavailable, op, "", err)
	}
	rec, err := booking.PrepareCreate(b, s.now())
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx, insertBooking,
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
		toMillis(rec.CreatedAt),
		toMillis(rec.UpdatedAt),
		rec.UpdatedBy,
		nullMillis(rec.CompletedAt),
		nullMillis(rec.VoidedAt),
		rec.VoidedBy,
		string(rec.VoidReason),
	)
	if err != nil {
		return "", classify(err, op, rec)
	}
	return rec.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (*booking.Booking, error) {
	return s.get(ctx, "get", id)
}

func (s *Store) get(ctx context.Context, op, id string) (*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, booking.NewError(booking.ErrStorageUnavailable, op, id, err)
	}
	row := s.db.QueryRowContext(ctx, selectBooking+` WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
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

// List reads the whole result in one statement and then yields it, so the
// caller may issue other queries while ranging.
func (s *Store) List(ctx context.Context, filter booking.Filter) iter.Seq2[*booking.Booking, error] {
	return func(yield func(*booking.Booking, error) bool) {
		out, err := s.list(ctx, filter)
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

func (s *Store) list(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	where, args := filterClause(filter)
	rows, err := s.db.QueryContext(ctx, selectBooking+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// write stores next if the row still carries version. It reports false when
// another writer got there first.
func (s *Store) write(ctx context.Context, next *booking.Booking, version int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, updateBooking,
		next.CustomerName,
		next.RequestedDate,
		next.RequestedTime,
		string(next.Status),
		string(next.Partition),
		next.Version,
		next.SupersededBy,
		toMillis(next.UpdatedAt),
		next.UpdatedBy,
		nullMillis(next.CompletedAt),
		nullMillis(next.VoidedAt),
		next.VoidedBy,
		string(next.VoidReason),
		next.ID,
		version,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// classify maps insert failures onto booking error kinds.
func classify(err error, op string, rec *booking.Booking) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return booking.NewError(booking.ErrDuplicateID, op, rec.ID, nil)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return booking.Errorf(booking.ErrValidation, op, rec.ID, "lineage %s does not exist", rec.Lineage)
		case sqlite3lib.SQLITE_CONSTRAINT_CHECK:
			return booking.NewError(booking.ErrValidation, op, rec.ID, err)
		}
	}
	return booking.NewError(booking.ErrStorageUnavailable, op, rec.ID, err)
}

var _ booking.Store = (*Store)(nil)
