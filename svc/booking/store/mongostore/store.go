// Package mongostore is a booking.Store backed by MongoDB with one
// collection per partition.
//
// Updates inside a collection are compare-and-set on the document version.
// A relocation copies the new version into the target collection before it
// deletes the old version from the source, so a crash in between leaves a
// duplicate that Engine.Reconcile reports, never a lost booking.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/flamingonails/bookings/svc/booking"
)

const maxAttempts = 3

// Collection names per partition.
const (
	ActiveCollection   = "bookings"
	ArchivedCollection = "archived"
	VoidedCollection   = "voided"
)

// Store persists bookings in MongoDB.
type Store struct {
	db          *mongo.Database
	collections map[booking.Partition]*mongo.Collection
	now         func() time.Time
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

// New uses the partition collections of db.
func New(db *mongo.Database, opts ...Option) *Store {
	s := &Store{
		db: db,
		collections: map[booking.Partition]*mongo.Collection{
			booking.PartitionActive:   db.Collection(ActiveCollection),
			booking.PartitionArchived: db.Collection(ArchivedCollection),
			booking.PartitionVoided:   db.Collection(VoidedCollection),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the list and lookup indexes of every collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "customer_contact", Value: 1}}},
		{Keys: bson.D{{Key: "lineage", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	for _, p := range booking.Partitions {
		if _, err := s.collections[p].Indexes().CreateMany(ctx, models); err != nil {
			return booking.NewError(booking.ErrStorageUnavailable, "ensure indexes", "", err)
		}
	}
	return nil
}

// Healthcheck pings the primary.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		return booking.NewError(booking.ErrStorageUnavailable, "healthcheck", "", err)
	}
	return nil
}

// Create checks the id and lineage against every partition, then inserts
// into the active collection. The unique _id of the active collection closes
// the race between two creates with the same id.
func (s *Store) Create(ctx context.Context, b *booking.Booking) (string, error) {
	const op = "create"
	rec, err := booking.PrepareCreate(b, s.now())
	if err != nil {
		return "", err
	}

	if b.ID != "" {
		_, found, err := s.find(ctx, rec.ID)
		if err != nil {
			return "", booking.NewError(booking.ErrStorageUnavailable, op, rec.ID, err)
		}
		if found {
			return "", booking.NewError(booking.ErrDuplicateID, op, rec.ID, nil)
		}
	}
	if rec.Lineage != "" {
		_, found, err := s.find(ctx, rec.Lineage)
		if err != nil {
			return "", booking.NewError(booking.ErrStorageUnavailable, op, rec.ID, err)
		}
		if !found {
			return "", booking.Errorf(booking.ErrValidation, op, rec.ID, "lineage %s does not exist", rec.Lineage)
		}
	}

	_, err = s.collections[booking.PartitionActive].InsertOne(ctx, toDocument(rec))
	switch {
	case err == nil:
		return rec.ID, nil
	case mongo.IsDuplicateKeyError(err):
		return "", booking.NewError(booking.ErrDuplicateID, op, rec.ID, nil)
	default:
		return "", booking.NewError(booking.ErrStorageUnavailable, op, rec.ID, err)
	}
}

func (s *Store) Get(ctx context.Context, id string) (*booking.Booking, error) {
	return s.get(ctx, "get", id)
}

func (s *Store) get(ctx context.Context, op, id string) (*booking.Booking, error) {
	b, found, err := s.find(ctx, id)
	if err != nil {
		return nil, booking.NewError(booking.ErrStorageUnavailable, op, id, err)
	}
	if !found {
		return nil, booking.NewError(booking.ErrNotFound, op, id, nil)
	}
	return b, nil
}

// find looks id up in partition order. The active copy wins when an
// interrupted relocation left the record in two collections.
func (s *Store) find(ctx context.Context, id string) (*booking.Booking, bool, error) {
	for _, p := range booking.Partitions {
		var doc document
		err := s.collections[p].FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		b := doc.booking()
		b.Partition = p
		return b, true, nil
	}
	return nil, false, nil
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
		ok, err := s.write(ctx, current, next)
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
		ok, err := s.write(ctx, current, next)
		if err != nil {
			return nil, booking.NewError(booking.ErrStorageUnavailable, op, id, err)
		}
		if ok {
			return next, nil
		}
	}
	return nil, booking.Errorf(booking.ErrStaleState, op, id, "booking kept changing during the move")
}

// write replaces current with next. It reports false when current is no
// longer the stored version.
func (s *Store) write(ctx context.Context, current, next *booking.Booking) (bool, error) {
	source := s.collections[current.Partition]
	guard := bson.D{{Key: "_id", Value: current.ID}, {Key: "version", Value: current.Version}}

	if next.Partition == current.Partition {
		res, err := source.ReplaceOne(ctx, guard, toDocument(next))
		if err != nil {
			return false, err
		}
		return res.MatchedCount == 1, nil
	}

	target := s.collections[next.Partition]
	if _, err := target.InsertOne(ctx, toDocument(next)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	res, err := source.DeleteOne(ctx, guard)
	if err != nil {
		return false, fmt.Errorf("remove %s from %s after copy: %w", current.ID, source.Name(), err)
	}
	if res.DeletedCount == 1 {
		return true, nil
	}

	// Another writer changed the source first. Withdraw the copy.
	copied := bson.D{{Key: "_id", Value: next.ID}, {Key: "version", Value: next.Version}}
	if _, err := target.DeleteOne(ctx, copied); err != nil {
		return false, fmt.Errorf("withdraw copy of %s from %s: %w", next.ID, target.Name(), err)
	}
	return false, nil
}

// List runs one sorted query against the partition collection and buffers
// the result before the first yield.
func (s *Store) List(ctx context.Context, filter booking.Filter) iter.Seq2[*booking.Booking, error] {
	return func(yield func(*booking.Booking, error) bool) {
		coll, ok := s.collections[filter.PartitionOrDefault()]
		if !ok {
			yield(nil, booking.Errorf(booking.ErrValidation, "list", "", "unknown partition %q", filter.Partition))
			return
		}
		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
		cursor, err := coll.Find(ctx, filterDocument(filter), opts)
		if err != nil {
			yield(nil, booking.NewError(booking.ErrStorageUnavailable, "list", "", err))
			return
		}
		var docs []document
		if err := cursor.All(ctx, &docs); err != nil {
			yield(nil, booking.NewError(booking.ErrStorageUnavailable, "list", "", err))
			return
		}
		for _, d := range docs {
			if !yield(d.booking(), nil) {
				return
			}
		}
	}
}

func filterDocument(f booking.Filter) bson.D {
	filter := bson.D{}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		filter = append(filter, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: statuses}}})
	}
	if f.CustomerContact != "" {
		filter = append(filter, bson.E{Key: "customer_contact", Value: f.CustomerContact})
	}
	if f.RequestedDate != "" {
		filter = append(filter, bson.E{Key: "requested_date", Value: f.RequestedDate})
	}
	if f.Lineage != "" {
		filter = append(filter, bson.E{Key: "lineage", Value: f.Lineage})
	}
	return filter
}

var _ booking.Store = (*Store)(nil)
