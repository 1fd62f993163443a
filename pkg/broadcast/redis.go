package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

var ErrBroadcasterClosed = errors.New("broadcast: broadcaster is closed")

// RedisBroadcaster relays JSON encoded messages through a Redis pub/sub
// channel, so subscribers in every process on the channel receive them,
// including messages this process published.
type RedisBroadcaster[T any] struct {
	client  redis.UniversalClient
	channel string
	hub     *hub[T]

	mu      sync.Mutex
	pubsub  *redis.PubSub
	stopped chan struct{}
}

func NewRedisBroadcaster[T any](client redis.UniversalClient, channel string, buffer int) *RedisBroadcaster[T] {
	return &RedisBroadcaster[T]{client: client, channel: channel, hub: newHub[T](buffer)}
}

// Subscribe returns after Redis has confirmed the channel subscription, so
// a message published right afterwards is delivered. If Redis cannot be
// reached the subscriber comes back already closed.
func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	s, ok := b.hub.join()
	if !ok {
		return s
	}
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	s.onClose(func() {
		stop()
		b.hub.leave(s)
	})
	if err := b.listen(ctx); err != nil {
		_ = s.Close()
	}
	return s
}

// listen opens the shared Redis subscription once.
func (b *RedisBroadcaster[T]) listen(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hub.isClosed() {
		return ErrBroadcasterClosed
	}
	if b.pubsub != nil {
		return nil
	}
	// The subscription outlives the subscriber that opened it.
	ps := b.client.Subscribe(context.WithoutCancel(ctx), b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("broadcast: subscribe %s: %w", b.channel, err)
	}
	b.pubsub = ps
	b.stopped = make(chan struct{})
	go b.relay(ps.Channel(), b.stopped)
	return nil
}

func (b *RedisBroadcaster[T]) relay(in <-chan *redis.Message, stopped chan<- struct{}) {
	defer close(stopped)
	for m := range in {
		var data T
		if err := json.Unmarshal([]byte(m.Payload), &data); err != nil {
			continue
		}
		b.hub.fanout(Message[T]{Data: data})
	}
}

func (b *RedisBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	if b.hub.isClosed() {
		return ErrBroadcasterClosed
	}
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("broadcast: encode: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("broadcast: publish %s: %w", b.channel, err)
	}
	return nil
}

// Close ends every subscription and the Redis subscription. The client
// stays open.
func (b *RedisBroadcaster[T]) Close() error {
	if !b.hub.shutdown() {
		return nil
	}
	b.mu.Lock()
	ps, stopped := b.pubsub, b.stopped
	b.pubsub = nil
	b.mu.Unlock()
	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-stopped
	return err
}
