// Package storetest is the conformance suite for booking.Store implementations.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/svc/booking"
)

// Factory returns an empty store. Cleanup should be registered on t.
type Factory func(t *testing.T) booking.Store

// Run exercises every Store guarantee against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Create", func(t *testing.T) { testCreate(t, newStore(t)) })
	t.Run("CreateDuplicateID", func(t *testing.T) { testCreateDuplicateID(t, newStore(t)) })
	t.Run("CreateLineage", func(t *testing.T) { testCreateLineage(t, newStore(t)) })
	t.Run("GetNotFound", func(t *testing.T) { testGetNotFound(t, newStore(t)) })
	t.Run("ConditionalUpdate", func(t *testing.T) { testConditionalUpdate(t, newStore(t)) })
	t.Run("ConditionalUpdateStale", func(t *testing.T) { testConditionalUpdateStale(t, newStore(t)) })
	t.Run("ConditionalUpdateImmutable", func(t *testing.T) { testConditionalUpdateImmutable(t, newStore(t)) })
	t.Run("ConditionalUpdateRelocates", func(t *testing.T) { testConditionalUpdateRelocates(t, newStore(t)) })
	t.Run("MoveToPartitionIdempotent", func(t *testing.T) { testMoveIdempotent(t, newStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("ConcurrentCompareAndSet", func(t *testing.T) { testConcurrentCAS(t, newStore(t)) })
}

// NewBooking returns a valid unsaved booking.
func NewBooking() *booking.Booking {
	return &booking.Booking{
		CustomerContact: "a@x.com",
		CustomerName:    "Anu",
		ServiceName:     "Manicure",
		RequestedDate:   "2025-11-10",
		RequestedTime:   "15:30",
		Status:          booking.StatusPending,
		UpdatedBy:       "test",
	}
}

func create(t *testing.T, s booking.Store, b *booking.Booking) string {
	t.Helper()
	id, err := s.Create(t.Context(), b)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func setStatus(s booking.Status) func(*booking.Booking) error {
	return func(b *booking.Booking) error {
		b.Status = s
		return nil
	}
}

func testCreate(t *testing.T, s booking.Store) {
	ctx := t.Context()
	in := NewBooking()
	id := create(t, s, in)
	assert.Empty(t, in.ID, "input must not be modified")

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, booking.StatusPending, got.Status)
	assert.Equal(t, booking.PartitionActive, got.Partition)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "a@x.com", got.CustomerContact)
	assert.Equal(t, "Anu", got.CustomerName)
	assert.Equal(t, "Manicure", got.ServiceName)
	assert.Equal(t, "2025-11-10", got.RequestedDate)
	assert.Equal(t, "15:30", got.RequestedTime)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Empty(t, got.Lineage)
}

func testCreateDuplicateID(t *testing.T, s booking.Store) {
	ctx := t.Context()
	b := NewBooking()
	b.ID = uuid.NewString()
	create(t, s, b)

	_, err := s.Create(ctx, b)
	require.ErrorIs(t, err, booking.ErrDuplicateID)

	// Ids stay reserved after the record leaves the active partition.
	_, err = s.MoveToPartition(ctx, b.ID, booking.PartitionArchived)
	require.NoError(t, err)
	_, err = s.Create(ctx, b)
	require.ErrorIs(t, err, booking.ErrDuplicateID)
}

func testCreateLineage(t *testing.T, s booking.Store) {
	ctx := t.Context()
	original := create(t, s, NewBooking())

	child := NewBooking()
	child.Lineage = original
	childID := create(t, s, child)

	got, err := s.Get(ctx, childID)
	require.NoError(t, err)
	assert.Equal(t, original, got.Lineage)

	orphan := NewBooking()
	orphan.Lineage = uuid.NewString()
	_, err = s.Create(ctx, orphan)
	require.ErrorIs(t, err, booking.ErrValidation)
}

func testGetNotFound(t *testing.T, s booking.Store) {
	ctx := t.Context()
	missing := uuid.NewString()

	_, err := s.Get(ctx, missing)
	require.ErrorIs(t, err, booking.ErrNotFound)
	assert.Equal(t, missing, booking.BookingIDOf(err))

	_, err = s.ConditionalUpdate(ctx, missing, booking.StatusPending, setStatus(booking.StatusConfirmed))
	require.ErrorIs(t, err, booking.ErrNotFound)

	_, err = s.MoveToPartition(ctx, missing, booking.PartitionVoided)
	require.ErrorIs(t, err, booking.ErrNotFound)
}

func testConditionalUpdate(t *testing.T, s booking.Store) {
	ctx := t.Context()
	id := create(t, s, NewBooking())

	updated, err := s.ConditionalUpdate(ctx, id, booking.StatusPending, func(b *booking.Booking) error {
		b.Status = booking.StatusConfirmed
		b.UpdatedBy = "staff1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, updated.Status)
	assert.Equal(t, int64(2), updated.Version)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)
	assert.Equal(t, "staff1", got.UpdatedBy)
	assert.Equal(t, int64(2), got.Version)
}

func testConditionalUpdateStale(t *testing.T, s booking.Store) {
	ctx := t.Context()
	id := create(t, s, NewBooking())

	_, err := s.ConditionalUpdate(ctx, id, booking.StatusConfirmed, setStatus(booking.StatusCompleted))
	require.ErrorIs(t, err, booking.ErrStaleState)

	_, err = s.MoveToPartition(ctx, id, booking.PartitionVoided)
	require.NoError(t, err)
	_, err = s.ConditionalUpdate(ctx, id, booking.StatusPending, setStatus(booking.StatusConfirmed))
	require.ErrorIs(t, err, booking.ErrStaleState, "records outside the active partition are never updated")

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, got.Status)
}

func testConditionalUpdateImmutable(t *testing.T, s booking.Store) {
	ctx := t.Context()
	id := create(t, s, NewBooking())

	_, err := s.ConditionalUpdate(ctx, id, booking.StatusPending, func(b *booking.Booking) error {
		b.CustomerContact = "b@x.com"
		return nil
	})
	require.ErrorIs(t, err, booking.ErrValidation)

	_, err = s.ConditionalUpdate(ctx, id, booking.StatusPending, func(*booking.Booking) error {
		return errors.New("refused")
	})
	require.Error(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.CustomerContact)
	assert.Equal(t, int64(1), got.Version)
}

func testConditionalUpdateRelocates(t *testing.T, s booking.Store) {
	ctx := t.Context()
	id := create(t, s, NewBooking())

	_, err := s.ConditionalUpdate(ctx, id, booking.StatusPending, func(b *booking.Booking) error {
		b.Status = booking.StatusCancelled
		b.Partition = booking.PartitionVoided
		b.VoidReason = booking.VoidCancelled
		return nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, booking.PartitionVoided, got.Partition)
	assert.Equal(t, booking.VoidCancelled, got.VoidReason)

	active, err := booking.Collect(booking.ListActive(ctx, s, booking.Filter{}))
	require.NoError(t, err)
	assert.Empty(t, active)

	voided, err := booking.Collect(s.List(ctx, booking.Filter{Partition: booking.PartitionVoided}))
	require.NoError(t, err)
	require.Len(t, voided, 1)
	assert.Equal(t, id, voided[0].ID)
}

func testMoveIdempotent(t *testing.T, s booking.Store) {
	ctx := t.Context()
	id := create(t, s, NewBooking())

	once, err := s.MoveToPartition(ctx, id, booking.PartitionArchived)
	require.NoError(t, err)
	twice, err := s.MoveToPartition(ctx, id, booking.PartitionArchived)
	require.NoError(t, err)

	assert.Equal(t, booking.PartitionArchived, once.Partition)
	assert.Equal(t, once.Partition, twice.Partition)
	assert.Equal(t, once.Version, twice.Version)
	assert.Equal(t, once.Status, twice.Status)

	archived, err := booking.Collect(s.List(ctx, booking.Filter{Partition: booking.PartitionArchived}))
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	_, err = s.MoveToPartition(ctx, id, booking.Partition("trash"))
	require.ErrorIs(t, err, booking.ErrValidation)
}

func testList(t *testing.T, s booking.Store) {
	ctx := t.Context()

	first := create(t, s, NewBooking())
	second := NewBooking()
	second.CustomerContact = "b@x.com"
	second.RequestedDate = "2025-11-11"
	secondID := create(t, s, second)
	third := create(t, s, NewBooking())
	_, err := s.ConditionalUpdate(ctx, third, booking.StatusPending, setStatus(booking.StatusConfirmed))
	require.NoError(t, err)

	seq := booking.ListActive(ctx, s, booking.Filter{})
	all, err := booking.Collect(seq)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first, secondID, third}, ids(all))

	again, err := booking.Collect(seq)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids(all), ids(again), "sequence must be restartable")

	byStatus, err := booking.Collect(booking.ListActive(ctx, s, booking.Filter{Statuses: []booking.Status{booking.StatusConfirmed}}))
	require.NoError(t, err)
	assert.Equal(t, []string{third}, ids(byStatus))

	byCustomer, err := booking.Collect(booking.ListActive(ctx, s, booking.Filter{CustomerContact: "b@x.com"}))
	require.NoError(t, err)
	assert.Equal(t, []string{secondID}, ids(byCustomer))

	byDate, err := booking.Collect(booking.ListActive(ctx, s, booking.Filter{RequestedDate: "2025-11-11"}))
	require.NoError(t, err)
	assert.Equal(t, []string{secondID}, ids(byDate))

	count := 0
	for _, err := range seq {
		require.NoError(t, err)
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)

	archived, err := booking.Collect(s.List(ctx, booking.Filter{Partition: booking.PartitionArchived}))
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func testConcurrentCAS(t *testing.T, s booking.Store) {
	ctx := context.WithoutCancel(t.Context())
	id := create(t, s, NewBooking())

	const workers = 8
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		mu      sync.Mutex
		success int
		stale   int
		other   []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.ConditionalUpdate(ctx, id, booking.StatusPending, setStatus(booking.StatusConfirmed))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, booking.ErrStaleState):
				stale++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, stale)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func ids(bs []*booking.Booking) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}
