package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/broadcast"
)

func receive[T any](t *testing.T, sub broadcast.Subscriber[T]) (T, bool) {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive(context.Background()):
		return msg.Data, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	var zero T
	return zero, false
}

func TestMemoryBroadcaster(t *testing.T) {
	t.Parallel()

	t.Run("fans out to every subscriber", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[string](4)
		defer b.Close()

		s1 := b.Subscribe(context.Background())
		s2 := b.Subscribe(context.Background())
		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[string]{Data: "confirmed"}))

		got, ok := receive(t, s1)
		require.True(t, ok)
		assert.Equal(t, "confirmed", got)
		got, ok = receive(t, s2)
		require.True(t, ok)
		assert.Equal(t, "confirmed", got)
	})

	t.Run("drops slow subscriber", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 2}))
		assert.Equal(t, 0, b.Subscribers())

		got, ok := receive(t, sub)
		require.True(t, ok)
		assert.Equal(t, 1, got)
		_, ok = receive(t, sub)
		assert.False(t, ok)
	})

	t.Run("context cancel unsubscribes", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		_, ok := receive(t, sub)
		assert.False(t, ok)
		assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("close is idempotent and ends subscriptions", func(t *testing.T) {
		t.Parallel()

		b := broadcast.NewMemoryBroadcaster[int](1)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sub := b.Subscribe(ctx)

		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
		_, ok := receive(t, sub)
		assert.False(t, ok)

		late := b.Subscribe(context.Background())
		_, ok = receive(t, late)
		assert.False(t, ok)
		assert.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1}))
	})
}
