package broadcast_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/broadcast"
)

type change struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

func setupRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBroadcaster(t *testing.T) {
	client := setupRedis(t)

	publisher := broadcast.NewRedisBroadcaster[change](client, "bookings:changes", 4)
	consumer := broadcast.NewRedisBroadcaster[change](client, "bookings:changes", 4)
	defer publisher.Close()
	defer consumer.Close()

	sub := consumer.Subscribe(context.Background())
	require.NoError(t, publisher.Broadcast(context.Background(), broadcast.Message[change]{
		Data: change{BookingID: "b-1", Status: "confirmed"},
	}))

	got, ok := receive(t, sub)
	require.True(t, ok)
	assert.Equal(t, change{BookingID: "b-1", Status: "confirmed"}, got)

	require.NoError(t, sub.Close())
	_, ok = receive(t, sub)
	assert.False(t, ok)
}

func TestRedisBroadcaster_Close(t *testing.T) {
	client := setupRedis(t)

	b := broadcast.NewRedisBroadcaster[change](client, "bookings:changes", 1)
	sub := b.Subscribe(context.Background())
	require.NoError(t, b.Close())

	_, ok := receive(t, sub)
	assert.False(t, ok)
	assert.ErrorIs(t, b.Broadcast(context.Background(), broadcast.Message[change]{}), broadcast.ErrBroadcasterClosed)

	_, ok = receive(t, b.Subscribe(context.Background()))
	assert.False(t, ok)
}

func TestRedisBroadcaster_SharedSubscription(t *testing.T) {
	client := setupRedis(t)

	b := broadcast.NewRedisBroadcaster[change](client, "bookings:changes", 4)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	first := b.Subscribe(ctx)
	second := b.Subscribe(context.Background())

	require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[change]{Data: change{BookingID: "b-2"}}))
	for _, sub := range []broadcast.Subscriber[change]{first, second} {
		got, ok := receive(t, sub)
		require.True(t, ok)
		assert.Equal(t, "b-2", got.BookingID)
	}

	cancel()
	_, ok := receive(t, first)
	assert.False(t, ok)

	require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[change]{Data: change{BookingID: "b-3"}}))
	got, ok := receive(t, second)
	require.True(t, ok)
	assert.Equal(t, "b-3", got.BookingID)
}
