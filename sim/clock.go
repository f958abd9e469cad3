package sim

import "container/heap"

// Clock is the discrete-event scheduler: a single-threaded, cooperative
// priority queue keyed on virtual time. There is no real concurrency —
// every "process" in the simulation is an Event that runs to completion
// and, if it needs to resume later, schedules its own successor.
type Clock struct {
	now   Millis
	queue eventQueue
	seq   int64
}

// NewClock returns a Clock initialized at virtual time zero.
func NewClock() *Clock {
	c := &Clock{queue: make(eventQueue, 0)}
	heap.Init(&c.queue)
	return c
}

// Now returns the clock's current virtual time.
func (c *Clock) Now() Millis { return c.now }

// Schedule registers ev to fire at ev.Timestamp(). Schedule does not
// check ev.Timestamp() against Now(): an event whose timestamp has
// already passed sorts ahead of every later event and runs at the next
// dispatch.
func (c *Clock) Schedule(ev Event) {
	heap.Push(&c.queue, clockEntry{event: ev, seq: c.nextSeq()})
}

func (c *Clock) nextSeq() int64 {
	s := c.seq
	c.seq++
	return s
}

// Pending reports whether any event remains in the queue.
func (c *Clock) Pending() bool { return c.queue.Len() > 0 }

// RunUntil dispatches events in timestamp order (ties broken by
// registration order) until either the queue is empty or the next event's
// timestamp would exceed deadline. The clock is advanced to each
// dispatched event's own timestamp before Execute runs, so Execute always
// observes Now() == the event's own Timestamp().
func (c *Clock) RunUntil(deadline Millis, env *Environment) {
	for c.queue.Len() > 0 {
		next := c.queue[0]
		if next.event.Timestamp() > deadline {
			break
		}
		heap.Pop(&c.queue)
		c.now = next.event.Timestamp()
		next.event.Execute(env)
	}
	if c.now < deadline {
		c.now = deadline
	}
}
