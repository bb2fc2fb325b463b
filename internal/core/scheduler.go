package core

import (
	"sort"
	"time"
)

// EventID identifies a scheduled event.
type EventID uint64

type event struct {
	id    EventID
	due   time.Time
	every time.Duration // 0 for one-shot events
	fn    func()
}

// Scheduler is a single-threaded queue of deferred and repeating callbacks.
//
// Nothing fires on its own: the owner calls Run, which executes every event
// whose due time has passed, in due order (ties in scheduling order). Events
// scheduled from inside a callback are timed relative to the firing event's
// due time, so chained delays do not drift with tick granularity.
//
// Scheduler is not safe for concurrent use.
type Scheduler struct {
	clock  Clock
	seq    EventID
	events []*event
	base   time.Time // due time of the running event, zero outside Run
}

// NewScheduler creates a scheduler reading time from clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// After schedules fn to run once, d from now.
func (s *Scheduler) After(d time.Duration, fn func()) EventID {
	return s.add(d, 0, fn)
}

// Every schedules fn to run every d, first at now+d.
// Missed intervals are caught up on the next Run.
func (s *Scheduler) Every(d time.Duration, fn func()) EventID {
	if d <= 0 {
		panic("core: non-positive interval")
	}
	return s.add(d, d, fn)
}

func (s *Scheduler) add(d, every time.Duration, fn func()) EventID {
	s.seq++
	s.insert(&event{
		id:    s.seq,
		due:   s.now().Add(d),
		every: every,
		fn:    fn,
	})
	return s.seq
}

func (s *Scheduler) now() time.Time {
	if !s.base.IsZero() {
		return s.base
	}
	return s.clock.Now()
}

// insert keeps events ordered by due time, then by id.
func (s *Scheduler) insert(e *event) {
	i := sort.Search(len(s.events), func(i int) bool {
		o := s.events[i]
		if o.due.Equal(e.due) {
			return o.id > e.id
		}
		return o.due.After(e.due)
	})
	s.events = append(s.events, nil)
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = e
}

// Cancel removes a pending event. Reports whether it was pending.
func (s *Scheduler) Cancel(id EventID) bool {
	for i, e := range s.events {
		if e.id == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return true
		}
	}
	return false
}

// CancelAll drops every pending event.
func (s *Scheduler) CancelAll() {
	s.events = nil
}

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int {
	return len(s.events)
}

// Run fires every event due at or before the clock's current time.
// Returns the number of callbacks executed.
func (s *Scheduler) Run() int {
	now := s.clock.Now()
	fired := 0
	for len(s.events) > 0 && !s.events[0].due.After(now) {
		e := s.events[0]
		s.events = s.events[1:]

		if e.every > 0 {
			// Re-queue before firing so the callback may cancel it.
			s.insert(&event{id: e.id, due: e.due.Add(e.every), every: e.every, fn: e.fn})
		}

		s.base = e.due
		e.fn()
		s.base = time.Time{}
		fired++
	}
	return fired
}
