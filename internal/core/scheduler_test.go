package core

import (
	"reflect"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestSchedulerAfterFiresInDueOrder(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	var order []string
	s.After(950*time.Millisecond, func() { order = append(order, "reset") })
	s.After(200*time.Millisecond, func() { order = append(order, "wrong") })
	s.After(200*time.Millisecond, func() { order = append(order, "wrong-2") })

	clock.Advance(199 * time.Millisecond)
	if n := s.Run(); n != 0 {
		t.Fatalf("Run() fired %d events before they were due", n)
	}

	clock.Advance(time.Millisecond)
	s.Run()
	if want := []string{"wrong", "wrong-2"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, expected %v", order, want)
	}

	clock.Advance(time.Second)
	s.Run()
	if want := []string{"wrong", "wrong-2", "reset"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, expected %v", order, want)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, expected 0", s.Pending())
	}
}

func TestSchedulerEveryCatchesUp(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	ticks := 0
	id := s.Every(time.Second, func() { ticks++ })

	clock.Advance(3500 * time.Millisecond)
	if n := s.Run(); n != 3 {
		t.Errorf("Run() fired %d ticks, expected 3", n)
	}
	if ticks != 3 {
		t.Errorf("ticks = %d, expected 3", ticks)
	}

	if !s.Cancel(id) {
		t.Fatal("Cancel() should report the repeating event as pending")
	}
	clock.Advance(5 * time.Second)
	s.Run()
	if ticks != 3 {
		t.Errorf("ticks after cancel = %d, expected 3", ticks)
	}
}

func TestSchedulerChainedDelaysUseDueTime(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	var fired []time.Duration
	s.After(380*time.Millisecond, func() {
		fired = append(fired, 380*time.Millisecond)
		s.After(600*time.Millisecond, func() {
			fired = append(fired, 980*time.Millisecond)
		})
	})

	// One coarse tick well past both deadlines still runs the chain.
	clock.Advance(2 * time.Second)
	s.Run()

	if len(fired) != 2 {
		t.Fatalf("expected chained event to fire in the same Run, got %v", fired)
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	called := false
	s.After(time.Millisecond, func() { called = true })
	s.Every(time.Second, func() { called = true })
	s.CancelAll()

	clock.Advance(time.Minute)
	if n := s.Run(); n != 0 || called {
		t.Errorf("cancelled events fired: n=%d called=%v", n, called)
	}
}

func TestSchedulerCallbackCancelsRepeating(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewScheduler(clock)

	ticks := 0
	var id EventID
	id = s.Every(time.Second, func() {
		ticks++
		if ticks == 2 {
			s.Cancel(id)
		}
	})

	clock.Advance(10 * time.Second)
	s.Run()
	if ticks != 2 {
		t.Errorf("ticks = %d, expected 2", ticks)
	}
}
