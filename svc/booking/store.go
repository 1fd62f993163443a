package booking

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
)

// Store persists bookings across the active, archived and voided partitions.
// An id is unique across all partitions, and exactly one partition holds it.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts b into the active partition and returns its id. An empty
	// id is assigned. ErrDuplicateID is returned only for a caller-supplied id
	// that already exists. A set Lineage must name an existing booking.
	Create(ctx context.Context, b *Booking) (string, error)

	// Get returns the booking with id from whichever partition holds it.
	Get(ctx context.Context, id string) (*Booking, error)

	// ConditionalUpdate atomically applies mutate to the booking if it is in
	// the active partition with status expected. Otherwise it fails with
	// ErrStaleState, or ErrNotFound for an unknown id. If mutate changes
	// Partition the record is relocated in the same atomic unit. mutate may
	// run more than once when a backend retries a lost race.
	ConditionalUpdate(ctx context.Context, id string, expected Status, mutate func(*Booking) error) (*Booking, error)

	// MoveToPartition relocates the booking. Moving to the partition that
	// already holds it is a no-op.
	MoveToPartition(ctx context.Context, id string, target Partition) (*Booking, error)

	// List yields the bookings of one partition matching filter. Each range
	// over the sequence runs the query again against a stable view.
	List(ctx context.Context, filter Filter) iter.Seq2[*Booking, error]
}

// ListActive lists the active partition.
// IndexLister is implemented by stores that keep partition membership apart
// from the record. ListIndex yields every record the partition index names,
// including ones whose own Partition disagrees, which List leaves out.
type IndexLister interface {
	ListIndex(ctx context.Context, p Partition) iter.Seq2[*Booking, error]
}

func ListActive(ctx context.Context, s Store, filter Filter) iter.Seq2[*Booking, error] {
	filter.Partition = PartitionActive
	return s.List(ctx, filter)
}

// Collect drains a list sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*Booking, error]) ([]*Booking, error) {
	var out []*Booking
	for b, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, nil
}

// The helpers below hold the record rules every Store shares, so backends
// only differ in how they make each step atomic.

// PrepareCreate validates b for insertion and fills the store-owned fields.
// It returns a copy; b itself is not modified.
func PrepareCreate(b *Booking, now time.Time) (*Booking, error) {
	if b == nil {
		return nil, Errorf(ErrValidation, "create", "", "booking is nil")
	}
	rec := b.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if !rec.Status.Valid() {
		return nil, Errorf(ErrValidation, "create", rec.ID, "unknown status %q", rec.Status)
	}
	if rec.Lineage == rec.ID {
		return nil, Errorf(ErrValidation, "create", rec.ID, "booking cannot be its own lineage")
	}
	rec.Partition = PartitionActive
	rec.Version = 1
	rec.CreatedAt = now
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	return rec, nil
}

// ApplyUpdate runs the compare-and-set rules against current and returns the
// mutated copy. It fails with ErrStaleState when current is not active with
// status expected, and ErrValidation when mutate touches an immutable field
// or produces an invalid status or partition.
func ApplyUpdate(current *Booking, expected Status, mutate func(*Booking) error) (*Booking, error) {
	const op = "conditional update"
	if !current.IsActive() {
		return nil, Errorf(ErrStaleState, op, current.ID, "booking is in the %s partition", current.Partition)
	}
	if current.Status != expected {
		return nil, Errorf(ErrStaleState, op, current.ID, "expected status %s, found %s", expected, current.Status)
	}

	next := current.Clone()
	if mutate != nil {
		if err := mutate(next); err != nil {
			return nil, NewError(ErrValidation, op, current.ID, err)
		}
	}

	switch {
	case next.ID != current.ID:
		return nil, Errorf(ErrValidation, op, current.ID, "id is immutable")
	case next.CustomerContact != current.CustomerContact:
		return nil, Errorf(ErrValidation, op, current.ID, "customer contact is immutable")
	case next.ServiceName != current.ServiceName:
		return nil, Errorf(ErrValidation, op, current.ID, "service name is immutable")
	case !next.CreatedAt.Equal(current.CreatedAt):
		return nil, Errorf(ErrValidation, op, current.ID, "created at is immutable")
	case next.Lineage != current.Lineage:
		return nil, Errorf(ErrValidation, op, current.ID, "lineage is immutable")
	case !next.Status.Valid():
		return nil, Errorf(ErrValidation, op, current.ID, "unknown status %q", next.Status)
	case !next.Partition.Valid():
		return nil, Errorf(ErrValidation, op, current.ID, "unknown partition %q", next.Partition)
	}

	next.Version = current.Version + 1
	return next, nil
}

// ApplyMove returns current relocated to target and whether anything changed.
func ApplyMove(current *Booking, target Partition, now time.Time) (*Booking, bool, error) {
	if !target.Valid() {
		return nil, false, Errorf(ErrValidation, "move", current.ID, "unknown partition %q", target)
	}
	if current.Partition == target {
		return current.Clone(), false, nil
	}
	next := current.Clone()
	next.Partition = target
	next.Version = current.Version + 1
	next.UpdatedAt = now
	return next, true, nil
}
