// Package redisstore is a booking.Store backed by Redis.
//
// Each booking is a JSON string at {prefix}:booking:{id}. Every partition
// keeps a sorted set of ids scored by creation time. Writes run inside
// WATCH/MULTI on the record key, so a concurrent write aborts the
// transaction and the operation starts over from a fresh read.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flamingonails/bookings/svc/booking"
)

const (
	defaultPrefix = "bookings"
	maxAttempts   = 5
	listBatchSize = 100
)

// Store persists bookings in Redis.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every key. Defaults to "bookings".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock overrides the time source used for store-owned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New wraps a connected client.
func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		rdb:    rdb,
		prefix: defaultPrefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) recordKey(id string) string {
	return fmt.Sprintf("%s:booking:%s", s.prefix, id)
}

func (s *Store) partitionKey(p booking.Partition) string {
	return fmt.Sprintf("%s:partition:%s", s.prefix, p)
}

// Healthcheck pings the server.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
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
	data, err := json.Marshal(rec)
	if err != nil {
		return "", booking.NewError(booking.ErrValidation, op, rec.ID, err)
	}

	key := s.recordKey(rec.ID)
	watched := []string{key}
	if rec.Lineage != "" {
		watched = append(watched, s.recordKey(rec.Lineage))
	}

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return booking.NewError(booking.ErrDuplicateID, op, rec.ID, nil)
		}
		if rec.Lineage != "" {
			found, err := tx.Exists(ctx, s.recordKey(rec.Lineage)).Result()
			if err != nil {
				return err
			}
			if found == 0 {
				return booking.Errorf(booking.ErrValidation, op, rec.ID, "lineage %s does not exist", rec.Lineage)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, s.partitionKey(booking.PartitionActive), redis.Z{Score: score(rec), Member: rec.ID})
			return nil
		})
		return err
	}

	if err := s.watch(ctx, op, rec.ID, txf, watched...); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (*booking.Booking, error) {
	data, err := s.rdb.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, booking.NewError(booking.ErrNotFound, "get", id, nil)
	}
	if err != nil {
		return nil, booking.NewError(booking.ErrStorageUnavailable, "get", id, err)
	}
	return decode(data, "get", id)
}

func (s *Store) ConditionalUpdate(ctx context.Context, id string, expected booking.Status, mutate func(*booking.Booking) error) (*booking.Booking, error) {
	const op = "conditional update"
	var next *booking.Booking
	err := s.update(ctx, op, id, func(current *booking.Booking) (*booking.Booking, error) {
		var err error
		next, err = booking.ApplyUpdate(current, expected, mutate)
		return next, err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) MoveToPartition(ctx context.Context, id string, target booking.Partition) (*booking.Booking, error) {
	const op = "move"
	var next *booking.Booking
	err := s.update(ctx, op, id, func(current *booking.Booking) (*booking.Booking, error) {
		moved, changed, err := booking.ApplyMove(current, target, s.now())
		if err != nil {
			return nil, err
		}
		next = moved
		if !changed {
			return nil, nil
		}
		return moved, nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// update reads the record under WATCH, derives the next version with apply
// and writes it back. A nil result from apply leaves the record untouched.
func (s *Store) update(ctx context.Context, op, id string, apply func(*booking.Booking) (*booking.Booking, error)) error {
	key := s.recordKey(id)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return booking.NewError(booking.ErrNotFound, op, id, nil)
		}
		if err != nil {
			return err
		}
		current, err := decode(data, op, id)
		if err != nil {
			return err
		}
		next, err := apply(current)
		if err != nil || next == nil {
			return err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return booking.NewError(booking.ErrValidation, op, id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			if next.Partition != current.Partition {
				pipe.ZAdd(ctx, s.partitionKey(next.Partition), redis.Z{Score: score(next), Member: id})
				pipe.ZRem(ctx, s.partitionKey(current.Partition), id)
			}
			return nil
		})
		return err
	}
	return s.watch(ctx, op, id, txf, key)
}

// watch runs txf with optimistic locking on keys, starting over when another
// client touched them first.
func (s *Store) watch(ctx context.Context, op, id string, txf func(*redis.Tx) error, keys ...string) error {
	for range maxAttempts {
		err := s.rdb.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var bErr *booking.Error
		if err == nil || errors.As(err, &bErr) {
			return err
		}
		return booking.NewError(booking.ErrStorageUnavailable, op, id, err)
	}
	return booking.Errorf(booking.ErrStaleState, op, id, "booking changed concurrently")
}

// List reads the partition index and then the records in batches. A record
// that moved out of the partition between the two reads is skipped.
func (s *Store) List(ctx context.Context, filter booking.Filter) iter.Seq2[*booking.Booking, error] {
	return s.seq(ctx, filter, true)
}

// ListIndex yields every record the partition index names, even one whose
// stored partition says otherwise. Reconcile reports those as misplaced.
func (s *Store) ListIndex(ctx context.Context, p booking.Partition) iter.Seq2[*booking.Booking, error] {
	return s.seq(ctx, booking.Filter{Partition: p}, false)
}

func (s *Store) seq(ctx context.Context, filter booking.Filter, strict bool) iter.Seq2[*booking.Booking, error] {
	return func(yield func(*booking.Booking, error) bool) {
		out, err := s.list(ctx, filter, strict)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, b := range out {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (s *Store) list(ctx context.Context, filter booking.Filter, strict bool) ([]*booking.Booking, error) {
	const op = "list"
	partition := filter.PartitionOrDefault()
	ids, err := s.rdb.ZRange(ctx, s.partitionKey(partition), 0, -1).Result()
	if err != nil {
		return nil, booking.NewError(booking.ErrStorageUnavailable, op, "", err)
	}

	var out []*booking.Booking
	for start := 0; start < len(ids); start += listBatchSize {
		batch := ids[start:min(start+listBatchSize, len(ids))]
		keys := make([]string, len(batch))
		for i, id := range batch {
			keys[i] = s.recordKey(id)
		}
		values, err := s.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, booking.NewError(booking.ErrStorageUnavailable, op, "", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			b, err := decode([]byte(raw), op, batch[i])
			if err != nil {
				return nil, err
			}
			if (!strict || b.Partition == partition) && filter.Matches(b) {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func decode(data []byte, op, id string) (*booking.Booking, error) {
	var b booking.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, booking.NewError(booking.ErrStorageUnavailable, op, id, fmt.Errorf("decode record: %w", err))
	}
	return &b, nil
}

// score orders the partition index by creation time. Ties fall back to the
// lexical order of the member, which is the id.
func score(b *booking.Booking) float64 {
	return float64(b.CreatedAt.UnixMilli())
}

var (
	_ booking.Store       = (*Store)(nil)
	_ booking.IndexLister = (*Store)(nil)
)
