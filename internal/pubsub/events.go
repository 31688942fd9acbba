// Package pubsub provides a generic signal emitter.
// Handlers are connected per event type and receive events synchronously;
// a channel view (Subscribe) and Bubble Tea bridge are layered on top.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"

	// AnyEvent connects a handler to every event type.
	AnyEvent EventType = ""
)

// HandlerID identifies a connected handler. Zero is never issued.
type HandlerID = uint64

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Emitter connects and disconnects event handlers.
type Emitter[T any] interface {
	Connect(eventType EventType, fn func(Event[T])) HandlerID
	Disconnect(id HandlerID) bool
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
