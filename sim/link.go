package sim

import "github.com/sirupsen/logrus"

// queuedPacket pairs a buffered packet with the virtual time it was
// enqueued, used to break serialization ties deterministically.
type queuedPacket struct {
	pkt       Packet
	enqueueTs Millis
}

// Link is a bidirectional pipe between two endpoints (a Host or a Router
// at each end), with a FIFO buffer per direction, a finite byte-per-ms
// service rate, a fixed propagation delay, and tail-drop admission.
type Link struct {
	ID       LinkID
	RateBpms float64 // bytes per millisecond
	DelayMs  Millis
	CapBytes uint32

	EndpointA, EndpointB NodeID

	bufA, bufB         []queuedPacket
	usedA, usedB       uint32
	dropsA, dropsB     int
	enqueueAttemptsA   int
	enqueueAttemptsB   int
	xmitBytesInterval  uint32
	totalXmitBytes     uint64

	// serializing is true while a packet from one of the buffers is being
	// "transmitted" (i.e. a linkServiceDoneEvent is pending for it).
	serializing bool
}

// NewLink constructs a Link. rateBpms is bytes/ms, capBytes is the
// per-direction buffer capacity.
func NewLink(id LinkID, a, b NodeID, rateBpms float64, delayMs Millis, capBytes uint32) *Link {
	return &Link{
		ID: id, RateBpms: rateBpms, DelayMs: delayMs, CapBytes: capBytes,
		EndpointA: a, EndpointB: b,
	}
}

// OtherEndpoint returns the endpoint id on the far side of from.
func (l *Link) OtherEndpoint(from NodeID) NodeID {
	if from == l.EndpointA {
		return l.EndpointB
	}
	if from == l.EndpointB {
		return l.EndpointA
	}
	invariant(false, "link %d: %d is not an endpoint (a=%d b=%d)", l.ID, from, l.EndpointA, l.EndpointB)
	return 0
}

// HasEndpoint reports whether one of the link's two endpoints is id.
func (l *Link) HasEndpoint(id NodeID) bool {
	return id == l.EndpointA || id == l.EndpointB
}

// Enqueue admits pkt to the buffer serving the from→other direction,
// tail-dropping it if that would exceed CapBytes. Returns true if
// admitted. If the link was idle, this kicks off the transmit process.
func (l *Link) Enqueue(env *Environment, pkt Packet, from NodeID) bool {
	fromA := from == l.EndpointA
	if fromA {
		l.enqueueAttemptsA++
	} else {
		l.enqueueAttemptsB++
	}

	used := &l.usedA
	if !fromA {
		used = &l.usedB
	}
	if *used+pkt.Length > l.CapBytes {
		if fromA {
			l.dropsA++
		} else {
			l.dropsB++
		}
		logrus.Debugf("link %d: tail-drop %s pkt flow=%d seq=%d (buffer full, used=%d cap=%d)",
			l.ID, pkt.Kind, pkt.FlowID, pkt.SeqNum, *used, l.CapBytes)
		return false
	}

	*used += pkt.Length
	entry := queuedPacket{pkt: pkt, enqueueTs: env.Clock.Now()}
	if fromA {
		l.bufA = append(l.bufA, entry)
	} else {
		l.bufB = append(l.bufB, entry)
	}

	if !l.serializing {
		l.startService(env)
	}
	return true
}

// headSelection identifies which buffer currently holds the packet that
// should be serviced next: the earliest-enqueued head, ties broken by
// endpoint-id order.
func (l *Link) headSelection() (fromA bool, ok bool) {
	switch {
	case len(l.bufA) == 0 && len(l.bufB) == 0:
		return false, false
	case len(l.bufA) == 0:
		return false, true
	case len(l.bufB) == 0:
		return true, true
	default:
		ta, tb := l.bufA[0].enqueueTs, l.bufB[0].enqueueTs
		if ta != tb {
			return ta < tb, true
		}
		// Deterministic tie-break by endpoint id order.
		return l.EndpointA < l.EndpointB, true
	}
}

func (l *Link) startService(env *Environment) {
	fromA, ok := l.headSelection()
	if !ok {
		return
	}
	l.serializing = true
	var head queuedPacket
	if fromA {
		head = l.bufA[0]
	} else {
		head = l.bufB[0]
	}
	serialization := Millis(float64(head.pkt.Length) / l.RateBpms)
	env.Clock.Schedule(&linkServiceDoneEvent{
		time: env.Clock.Now() + serialization,
		link: l.ID,
		fromA: fromA,
	})
}

// completeService pops the in-flight packet, frees its buffer credit, and
// spawns the deferred delivery after the propagation delay. Then, if more
// work remains, starts the next service immediately.
func (l *Link) completeService(env *Environment, fromA bool) {
	var pkt Packet
	if fromA {
		pkt = l.bufA[0].pkt
		l.bufA = l.bufA[1:]
		l.usedA -= pkt.Length
	} else {
		pkt = l.bufB[0].pkt
		l.bufB = l.bufB[1:]
		l.usedB -= pkt.Length
	}
	l.serializing = false
	l.xmitBytesInterval += pkt.Length
	l.totalXmitBytes += uint64(pkt.Length)

	dest := l.OtherEndpoint(l.fromEndpoint(fromA))
	env.Clock.Schedule(&linkDeliverEvent{
		time: env.Clock.Now() + l.DelayMs,
		pkt:  pkt,
		dest: dest,
	})

	l.startService(env)
}

func (l *Link) fromEndpoint(fromA bool) NodeID {
	if fromA {
		return l.EndpointA
	}
	return l.EndpointB
}

// GetWeight returns the link's routing cost: combined buffer occupancy
// (in ms of drain time at the link's rate) plus the propagation delay.
// See DESIGN.md for why this form was chosen over the alternative of
// deriving a weight from a packet's observed queueing delay.
func (l *Link) GetWeight() Millis {
	return Millis(float64(l.usedA+l.usedB)/l.RateBpms) + l.DelayMs
}

// BufferOccupancy returns combined buffer usage as a fraction of total
// two-directional capacity, in [0,1].
func (l *Link) BufferOccupancy() float64 {
	return float64(l.usedA+l.usedB) / (2 * float64(l.CapBytes))
}

// FlowRateMbps returns the link's throughput over the most recent
// reporting interval, in Mbps.
func (l *Link) FlowRateMbps(intervalMs Millis) float64 {
	if intervalMs <= 0 {
		return 0
	}
	return float64(l.xmitBytesInterval) / float64(intervalMs) / MbpsToBytesPerMs
}

// Drops returns the total tail-drop count across both directions.
func (l *Link) Drops() int { return l.dropsA + l.dropsB }

// EnqueueAttempts returns the total admission attempts across both
// directions (admitted + dropped), for the drop-accounting invariant.
func (l *Link) EnqueueAttempts() int { return l.enqueueAttemptsA + l.enqueueAttemptsB }

// ResetInterval zeroes the per-reporting-interval counters.
func (l *Link) ResetInterval() {
	l.xmitBytesInterval = 0
}
