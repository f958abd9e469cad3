package sim

import "testing"

type recordEvent struct {
	time Millis
	out  *[]string
	name string
}

func (e *recordEvent) Timestamp() Millis { return e.time }
func (e *recordEvent) Execute(env *Environment) { *e.out = append(*e.out, e.name) }

func TestClock_RunUntil_OrdersByTimestampThenRegistration(t *testing.T) {
	// GIVEN three events, two sharing a timestamp
	c := NewClock()
	var fired []string
	c.Schedule(&recordEvent{time: 10, out: &fired, name: "first-at-10"})
	c.Schedule(&recordEvent{time: 5, out: &fired, name: "at-5"})
	c.Schedule(&recordEvent{time: 10, out: &fired, name: "second-at-10"})

	// WHEN the clock runs to completion
	c.RunUntil(100, nil)

	// THEN events fire in (timestamp, registration order)
	want := []string{"at-5", "first-at-10", "second-at-10"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("fired[%d] = %q, want %q", i, fired[i], want[i])
		}
	}
}

func TestClock_RunUntil_StopsAtDeadline(t *testing.T) {
	// GIVEN an event scheduled past the deadline
	c := NewClock()
	var fired []string
	c.Schedule(&recordEvent{time: 50, out: &fired, name: "late"})

	// WHEN RunUntil is called with an earlier deadline
	c.RunUntil(10, nil)

	// THEN the event does not fire and the clock still advances to the deadline
	if len(fired) != 0 {
		t.Errorf("fired = %v, want none", fired)
	}
	if c.Now() != 10 {
		t.Errorf("Now() = %v, want 10", c.Now())
	}
	if !c.Pending() {
		t.Error("Pending() = false, want true (event still queued)")
	}
}

func TestClock_RunUntil_AdvancesNowToEachEventTimestamp(t *testing.T) {
	// GIVEN an event that reads the clock's own Now() when it executes
	c := NewClock()
	var observed Millis
	c.Schedule(&observeNowEvent{time: 7, clock: c, out: &observed})

	// WHEN the clock dispatches it
	c.RunUntil(100, nil)

	// THEN Now() equaled the event's own timestamp during Execute
	if observed != 7 {
		t.Errorf("observed Now() = %v, want 7", observed)
	}
}

type observeNowEvent struct {
	time  Millis
	clock *Clock
	out   *Millis
}

func (e *observeNowEvent) Timestamp() Millis         { return e.time }
func (e *observeNowEvent) Execute(env *Environment) { *e.out = e.clock.Now() }
