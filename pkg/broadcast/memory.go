package broadcast

import "context"

// MemoryBroadcaster delivers within the current process.
type MemoryBroadcaster[T any] struct {
	hub *hub[T]
}

// NewMemoryBroadcaster gives each subscriber a buffer of buffer messages,
// at least one.
func NewMemoryBroadcaster[T any](buffer int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{hub: newHub[T](buffer)}
}

func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s, ok := b.hub.join()
	if !ok {
		return s
	}
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	s.onClose(func() {
		stop()
		b.hub.leave(s)
	})
	return s
}

// Broadcast never blocks and never fails.
func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) error {
	b.hub.fanout(msg)
	return nil
}

// Subscribers counts live subscriptions.
func (b *MemoryBroadcaster[T]) Subscribers() int { return b.hub.size() }

func (b *MemoryBroadcaster[T]) Close() error {
	b.hub.shutdown()
	return nil
}
