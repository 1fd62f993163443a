package redisstore_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/booking/store/redisstore"
	"github.com/flamingonails/bookings/svc/booking/store/storetest"
)

func setup(t *testing.T, opts ...redisstore.Option) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client, opts...), mr
}

func TestStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) booking.Store {
		s, _ := setup(t)
		return s
	})
}

func TestKeysAreNamespaced(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s, mr := setup(t, redisstore.WithPrefix("salon"))

	id, err := s.Create(ctx, storetest.NewBooking())
	require.NoError(t, err)
	assert.True(t, mr.Exists("salon:booking:"+id))

	members, err := mr.ZMembers("salon:partition:active")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, members)

	_, err = s.MoveToPartition(ctx, id, booking.PartitionArchived)
	require.NoError(t, err)

	members, err = mr.ZMembers("salon:partition:archived")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, members)
}

func TestListSkipsRecordsOutsideThePartition(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s, mr := setup(t)

	id, err := s.Create(ctx, storetest.NewBooking())
	require.NoError(t, err)
	_, err = s.MoveToPartition(ctx, id, booking.PartitionVoided)
	require.NoError(t, err)

	// Simulate a stale index entry left behind by a crashed writer.
	_, err = mr.ZAdd("bookings:partition:active", 1, id)
	require.NoError(t, err)

	active, err := booking.Collect(booking.ListActive(ctx, s, booking.Filter{}))
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestReconcileReportsStaleIndexEntry(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s, mr := setup(t)

	id, err := s.Create(ctx, storetest.NewBooking())
	require.NoError(t, err)
	_, err = s.MoveToPartition(ctx, id, booking.PartitionVoided)
	require.NoError(t, err)
	_, err = mr.ZAdd("bookings:partition:active", 1, id)
	require.NoError(t, err)

	report, err := booking.NewEngine(s).Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, report.Misplaced, 1)
	assert.Equal(t, id, report.Misplaced[0].Booking.ID)
	assert.Equal(t, booking.PartitionActive, report.Misplaced[0].Location)
	assert.Equal(t, booking.PartitionVoided, report.Misplaced[0].Booking.Partition)
	assert.Empty(t, report.Duplicates)
	assert.Equal(t, 2, report.Scanned, "active index entry plus the voided record")

	active, err := booking.Collect(booking.ListActive(ctx, s, booking.Filter{}))
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUnavailable(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	s, mr := setup(t)
	require.NoError(t, s.Healthcheck(ctx))

	mr.Close()
	_, err := s.Get(ctx, "x")
	require.ErrorIs(t, err, booking.ErrStorageUnavailable)

	_, err = booking.Collect(booking.ListActive(ctx, s, booking.Filter{}))
	require.ErrorIs(t, err, booking.ErrStorageUnavailable)
	require.ErrorIs(t, s.Healthcheck(ctx), booking.ErrStorageUnavailable)
}
