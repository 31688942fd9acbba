package handlers

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zjrosen/worksets/internal/log"
)

// Scheduler runs callbacks after a delay. A callback returning true is run
// again after another delay. ScheduleAfter returns a non-zero handle; Cancel
// reports whether the handle was live.
//
// ScheduleAfter must not run fn before it returns, even for a zero delay:
// Timers holds its lock across the call and fn takes the same lock.
// mainloop.Loop satisfies this by deferring every fire to Dispatch.
type Scheduler interface {
	ScheduleAfter(delay time.Duration, fn func() bool) uint64
	Cancel(id uint64) bool
}

// Timeout describes a named callback run after Delay, repeatedly if Repeat.
type Timeout struct {
	Name     string
	Delay    time.Duration
	Callback func()
	Repeat   bool
}

// Timers tracks named timeouts. Besides the label bookkeeping shared with the
// other registries it keeps one live handle per timer name, so names must be
// unique among running timers.
//
// Records only hold the name. Remove(name) cancels a timer without touching
// the label that registered it; that label's record then refers to whatever
// runs under the name later, or to nothing.
type Timers struct {
	*Registry[Timeout, string]

	sched Scheduler

	mu  sync.Mutex
	ids map[string]uint64
}

// NewTimers creates an empty timer registry scheduling on sched.
func NewTimers(sched Scheduler, opts ...Option) *Timers {
	t := &Timers{
		sched: sched,
		ids:   make(map[string]uint64),
	}
	opts = append([]Option{WithName("timeouts")}, opts...)
	t.Registry = New[Timeout, string](timeoutOps{t}, opts...)
	return t
}

type timeoutOps struct{ t *Timers }

func (o timeoutOps) Create(to Timeout) ([]string, error) { return o.t.create(to) }

func (o timeoutOps) Reverse(name string) error {
	o.t.Remove(name)
	return nil
}

func (t *Timers) create(to Timeout) ([]string, error) {
	switch {
	case t.sched == nil:
		return nil, fmt.Errorf("timeout %q: no scheduler: %w", to.Name, ErrMalformed)
	case to.Name == "":
		return nil, fmt.Errorf("timeout without name: %w", ErrMalformed)
	case to.Callback == nil:
		return nil, fmt.Errorf("timeout %q without callback: %w", to.Name, ErrMalformed)
	case to.Delay < 0:
		return nil, fmt.Errorf("timeout %q: negative delay %s: %w", to.Name, to.Delay, ErrMalformed)
	}

	// A one-shot replaces whatever still runs under its name.
	if !to.Repeat {
		t.Remove(to.Name)
	}

	name, repeat, callback := to.Name, to.Repeat, to.Callback

	// t.mu is held until the handle is stored, so a fire racing the
	// assignment waits for it before clearing its slot.
	t.mu.Lock()
	defer t.mu.Unlock()

	var id uint64
	id = t.sched.ScheduleAfter(to.Delay, func() bool {
		callback()
		if !repeat {
			t.clear(name, &id)
		}
		return repeat
	})
	if id == 0 {
		return nil, fmt.Errorf("timeout %q: scheduler refused", name)
	}
	t.ids[name] = id

	log.Debug(log.CatTimeouts, "Scheduled", "name", name, "delay", to.Delay, "repeat", repeat, "id", id)
	return []string{name}, nil
}

// clear resets name to the sentinel if it still holds *id.
// id is read under t.mu because create assigns it under the same lock.
func (t *Timers) clear(name string, id *uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ids[name] == *id {
		delete(t.ids, name)
	}
}

// Remove cancels the timer running under name and resets its handle.
// Reports whether a live timer was cancelled; otherwise it is a no-op.
// Safe to call from inside the timer's own callback.
func (t *Timers) Remove(name string) bool {
	t.mu.Lock()
	id, ok := t.ids[name]
	delete(t.ids, name)
	t.mu.Unlock()

	if !ok || id == 0 {
		return false
	}

	t.sched.Cancel(id)
	log.Debug(log.CatTimeouts, "Cancelled", "name", name, "id", id)
	return true
}

// ID returns the live handle for name, or 0 if nothing is scheduled.
func (t *Timers) ID(name string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ids[name]
}

// Running returns the names of live timers in lexicographic order.
func (t *Timers) Running() []string {
	t.mu.Lock()
	names := make([]string, 0, len(t.ids))
	for name := range t.ids {
		names = append(names, name)
	}
	t.mu.Unlock()

	slices.Sort(names)
	return names
}
