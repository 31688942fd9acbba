package handlers

import (
	"fmt"
	"reflect"

	"github.com/zjrosen/worksets/internal/log"
)

// Emitter is anything handlers can be connected to by event name.
// Connect returns a non-zero id; Disconnect reports whether the id was live.
type Emitter[K ~string, F any] interface {
	Connect(event K, fn F) uint64
	Disconnect(id uint64) bool
}

// Signal describes one callback connected to one or more events of an emitter.
type Signal[K ~string, F any] struct {
	Emitter  Emitter[K, F]
	Events   []K
	Callback F
}

// On builds a Signal.
func On[K ~string, F any](emitter Emitter[K, F], callback F, events ...K) Signal[K, F] {
	return Signal[K, F]{Emitter: emitter, Events: events, Callback: callback}
}

// Connection is the record of one connected handler.
type Connection[K ~string, F any] struct {
	Emitter Emitter[K, F]
	Event   K
	ID      uint64
}

// Subscriptions tracks signal connections by label.
type Subscriptions[K ~string, F any] struct {
	*Registry[Signal[K, F], Connection[K, F]]
}

// NewSubscriptions creates an empty subscription registry.
func NewSubscriptions[K ~string, F any](opts ...Option) *Subscriptions[K, F] {
	opts = append([]Option{WithName("signals")}, opts...)
	return &Subscriptions[K, F]{
		Registry: New[Signal[K, F], Connection[K, F]](signalOps[K, F]{}, opts...),
	}
}

type signalOps[K ~string, F any] struct{}

func (signalOps[K, F]) Create(sig Signal[K, F]) ([]Connection[K, F], error) {
	if sig.Emitter == nil {
		return nil, fmt.Errorf("signal without emitter: %w", ErrMalformed)
	}
	if isNilFunc(sig.Callback) {
		return nil, fmt.Errorf("signal %v without callback: %w", sig.Events, ErrMalformed)
	}

	conns := make([]Connection[K, F], 0, len(sig.Events))
	for _, event := range sig.Events {
		id := sig.Emitter.Connect(event, sig.Callback)
		if id == 0 {
			return conns, fmt.Errorf("emitter refused %q", event)
		}
		log.Debug(log.CatSignals, "Connected", "event", event, "id", id)
		conns = append(conns, Connection[K, F]{Emitter: sig.Emitter, Event: event, ID: id})
	}
	return conns, nil
}

func (signalOps[K, F]) Reverse(c Connection[K, F]) error {
	if !c.Emitter.Disconnect(c.ID) {
		// Already gone, e.g. the emitter was closed first.
		log.Debug(log.CatSignals, "Disconnect of stale handler", "event", c.Event, "id", c.ID)
		return nil
	}
	log.Debug(log.CatSignals, "Disconnected", "event", c.Event, "id", c.ID)
	return nil
}

func isNilFunc(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface, reflect.Map, reflect.Chan, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
