package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

type handler[T any] struct {
	id        HandlerID
	eventType EventType
	fn        func(Event[T])
}

// Broker is a generic signal emitter.
// Handlers run on the publishing goroutine, in connect order, outside the
// broker lock so they may connect or disconnect re-entrantly.
type Broker[T any] struct {
	mu         sync.RWMutex
	handlers   []handler[T]
	nextID     HandlerID
	done       chan struct{}
	bufferSize int
}

// NewBroker creates a new broker with the default channel buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker whose Subscribe channels use size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

func (b *Broker[T]) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Connect registers fn for eventType and returns its handler id.
// AnyEvent receives every event. Returns 0 if the broker is closed or fn is nil.
func (b *Broker[T]) Connect(eventType EventType, fn func(Event[T])) HandlerID {
	if fn == nil {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		return 0
	}

	b.nextID++
	b.handlers = append(b.handlers, handler[T]{id: b.nextID, eventType: eventType, fn: fn})
	return b.nextID
}

// Disconnect removes the handler with the given id.
// Reports whether a handler was removed; unknown ids are ignored.
func (b *Broker[T]) Disconnect(id HandlerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, h := range b.handlers {
		if h.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers an event to every handler connected to eventType.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	if b.closed() {
		b.mu.RUnlock()
		return
	}
	targets := make([]func(Event[T]), 0, len(b.handlers))
	for _, h := range b.handlers {
		if h.eventType == AnyEvent || h.eventType == eventType {
			targets = append(targets, h.fn)
		}
	}
	b.mu.RUnlock()

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, fn := range targets {
		fn(event)
	}
}

// chanSub is a channel handler guarded against send-after-close.
type chanSub[T any] struct {
	mu     sync.Mutex
	ch     chan Event[T]
	closed bool
}

func (s *chanSub[T]) send(event Event[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
	default:
		// Channel full - drop to prevent blocking
	}
}

func (s *chanSub[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Subscribe creates a buffered channel receiving every event.
// The channel is closed when ctx is cancelled or the broker is closed.
// Delivery is non-blocking: events are dropped if the channel is full.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	sub := &chanSub[T]{ch: make(chan Event[T], b.bufferSize)}

	id := b.Connect(AnyEvent, sub.send)
	if id == 0 {
		sub.close()
		return sub.ch
	}

	go func() {
		select {
		case <-ctx.Done():
			b.Disconnect(id)
		case <-b.done:
		}
		sub.close()
	}()

	return sub.ch
}

// Close disconnects every handler and closes subscriber channels. Idempotent.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		return
	}
	close(b.done)
	b.handlers = nil
}

// HandlerCount returns the number of connected handlers, channel subscribers included.
func (b *Broker[T]) HandlerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
