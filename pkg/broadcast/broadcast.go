package broadcast

import (
	"context"
	"sync"
)

// Message carries one published value.
type Message[T any] struct {
	Data T
}

// Subscriber is one receiving end of a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed once the
	// subscription ends for any reason.
	Receive(ctx context.Context) <-chan Message[T]
	Close() error
}

// Broadcaster delivers every message to every live subscriber. A
// subscriber too slow to accept a message is closed instead of stalling
// the publisher.
type Broadcaster[T any] interface {
	// Subscribe starts a subscription that ends with ctx, with its own
	// Close, or with the broadcaster.
	Subscribe(ctx context.Context) Subscriber[T]
	Broadcast(ctx context.Context, msg Message[T]) error
	Close() error
}

type subscription[T any] struct {
	ch chan Message[T]

	mu      sync.RWMutex
	done    bool
	release func()
}

func (s *subscription[T]) Receive(context.Context) <-chan Message[T] { return s.ch }

func (s *subscription[T]) Close() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	close(s.ch)
	release := s.release
	s.mu.Unlock()

	if release != nil {
		release()
	}
	return nil
}

// offer hands msg over if there is room. False means the subscription is
// finished or full.
func (s *subscription[T]) offer(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// onClose arranges for fn to run when the subscription ends, or runs it
// now if it already has.
func (s *subscription[T]) onClose(fn func()) {
	s.mu.Lock()
	if !s.done {
		s.release = fn
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// hub is the subscriber set both broadcasters share.
type hub[T any] struct {
	buffer int

	mu     sync.Mutex
	closed bool
	subs   map[*subscription[T]]struct{}
}

func newHub[T any](buffer int) *hub[T] {
	return &hub[T]{buffer: max(buffer, 1), subs: map[*subscription[T]]struct{}{}}
}

// join registers a new subscription. After shutdown it returns a closed one
// and false.
func (h *hub[T]) join() (*subscription[T], bool) {
	s := &subscription[T]{ch: make(chan Message[T], h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.done = true
		close(s.ch)
		return s, false
	}
	h.subs[s] = struct{}{}
	return s, true
}

func (h *hub[T]) leave(s *subscription[T]) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

func (h *hub[T]) fanout(msg Message[T]) {
	h.mu.Lock()
	var slow []*subscription[T]
	for s := range h.subs {
		if !s.offer(msg) {
			delete(h.subs, s)
			slow = append(slow, s)
		}
	}
	h.mu.Unlock()
	for _, s := range slow {
		_ = s.Close()
	}
}

func (h *hub[T]) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub[T]) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// shutdown closes every subscription. It reports false if the hub was
// already shut down.
func (h *hub[T]) shutdown() bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.closed = true
	subs := make([]*subscription[T], 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return true
}
