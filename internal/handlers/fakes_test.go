package handlers

import (
	"time"
)

// fakeEmitter records connections and counts disconnects per id.
type fakeEmitter struct {
	nextID      uint64
	live        map[uint64]fakeConn
	disconnects map[uint64]int
	refuse      string
}

type fakeConn struct {
	event string
	fn    func()
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{
		live:        make(map[uint64]fakeConn),
		disconnects: make(map[uint64]int),
	}
}

func (e *fakeEmitter) Connect(event string, fn func()) uint64 {
	if event == e.refuse {
		return 0
	}
	e.nextID++
	e.live[e.nextID] = fakeConn{event: event, fn: fn}
	return e.nextID
}

func (e *fakeEmitter) Disconnect(id uint64) bool {
	e.disconnects[id]++
	if _, ok := e.live[id]; !ok {
		return false
	}
	delete(e.live, id)
	return true
}

func (e *fakeEmitter) emit(event string) {
	for id := uint64(1); id <= e.nextID; id++ {
		if c, ok := e.live[id]; ok && c.event == event {
			c.fn()
		}
	}
}

// fakeScheduler only fires when told to.
type fakeScheduler struct {
	nextID  uint64
	pending map[uint64]func() bool
	delays  map[uint64]time.Duration
	cancels int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		pending: make(map[uint64]func() bool),
		delays:  make(map[uint64]time.Duration),
	}
}

func (s *fakeScheduler) ScheduleAfter(delay time.Duration, fn func() bool) uint64 {
	s.nextID++
	s.pending[s.nextID] = fn
	s.delays[s.nextID] = delay
	return s.nextID
}

func (s *fakeScheduler) Cancel(id uint64) bool {
	s.cancels++
	if _, ok := s.pending[id]; !ok {
		return false
	}
	delete(s.pending, id)
	return true
}

// fire runs source id once, dropping it unless it asks to repeat.
func (s *fakeScheduler) fire(id uint64) bool {
	fn, ok := s.pending[id]
	if !ok {
		return false
	}
	if !fn() {
		delete(s.pending, id)
	}
	return true
}
