// Package mainloop provides a cooperative scheduler for timed callbacks.
//
// Wall-clock timers only enqueue a FireMsg; the callback itself runs when the
// owner dispatches that message, either from Run or from a Bubble Tea Update
// via ListenCmd. All callbacks therefore execute on the dispatching goroutine,
// one at a time, like sources on a single-threaded main loop.
package mainloop

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/worksets/internal/log"
)

const defaultQueueSize = 256

// SourceID identifies a scheduled source. Zero is never issued.
type SourceID = uint64

// NoSource is the sentinel for "nothing scheduled".
const NoSource SourceID = 0

// FireMsg reports that a source's delay has elapsed.
type FireMsg struct {
	ID  SourceID
	gen uint64
}

type source struct {
	id    SourceID
	delay time.Duration
	fn    func() bool
	timer *time.Timer
	gen   uint64
}

// Loop owns a table of timed sources.
type Loop struct {
	mu      sync.Mutex
	sources map[SourceID]*source
	nextID  SourceID
	queue   chan FireMsg
	done    chan struct{}
	closed  bool
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{
		sources: make(map[SourceID]*source),
		queue:   make(chan FireMsg, defaultQueueSize),
		done:    make(chan struct{}),
	}
}

// ScheduleAfter arranges for fn to run after delay. If fn returns true it is
// scheduled again with the same delay and keeps its id.
// Returns NoSource if the loop is closed or fn is nil.
func (l *Loop) ScheduleAfter(delay time.Duration, fn func() bool) SourceID {
	if fn == nil {
		return NoSource
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return NoSource
	}

	l.nextID++
	s := &source{id: l.nextID, delay: delay, fn: fn}
	l.sources[s.id] = s
	l.arm(s)

	log.Debug(log.CatLoop, "Source added", "id", s.id, "delay", delay)
	return s.id
}

// arm starts the wall-clock timer for s. Must be called with l.mu held.
func (l *Loop) arm(s *source) {
	s.gen++
	msg := FireMsg{ID: s.id, gen: s.gen}
	s.timer = time.AfterFunc(s.delay, func() {
		select {
		case l.queue <- msg:
		case <-l.done:
		}
	})
}

// Cancel removes a source. Reports whether the source was live.
// Safe to call from inside the source's own callback.
func (l *Loop) Cancel(id SourceID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sources[id]
	if !ok {
		return false
	}
	s.timer.Stop()
	delete(l.sources, id)

	log.Debug(log.CatLoop, "Source removed", "id", id)
	return true
}

// Dispatch runs the callback for msg if its source is still live.
// Reports whether a callback ran. Stale and cancelled fires are dropped.
func (l *Loop) Dispatch(msg FireMsg) bool {
	l.mu.Lock()
	s, ok := l.sources[msg.ID]
	if !ok || s.gen != msg.gen {
		l.mu.Unlock()
		return false
	}
	l.mu.Unlock()

	again := s.fn()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Cancelled (or replaced) while the callback ran.
	if cur, ok := l.sources[msg.ID]; !ok || cur != s {
		return true
	}
	if again && !l.closed {
		l.arm(s)
	} else {
		delete(l.sources, s.id)
	}
	return true
}

// Iterate waits for the next fire and dispatches it.
func (l *Loop) Iterate(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return nil
	case msg := <-l.queue:
		l.Dispatch(msg)
		return nil
	}
}

// Run dispatches fires until ctx is cancelled or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case msg := <-l.queue:
			l.Dispatch(msg)
		}
	}
}

// ListenCmd returns a tea.Cmd that waits for the next fire.
// The Update handler should pass the FireMsg to Dispatch and listen again.
func (l *Loop) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-l.done:
			return nil
		case msg := <-l.queue:
			return msg
		}
	}
}

// Pending returns the number of live sources.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sources)
}

// Close stops every source. Idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	for id, s := range l.sources {
		s.timer.Stop()
		delete(l.sources, id)
	}
	close(l.done)
}
