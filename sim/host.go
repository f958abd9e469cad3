package sim

import "github.com/sirupsen/logrus"

// Host is a network endpoint owning one link attachment and a registry of
// flows. It routes inbound packets to the flow that owns them — a
// sending flow if the flow ID is already locally known as a sender
// (meaning the packet is feedback: an Ack or Fin-ack), otherwise the
// receiving side, autocreating it on first contact.
type Host struct {
	ID   HostID
	Link LinkID // set once at topology load; a Host has at most one

	sendFlows map[FlowID]*SendingFlow
	recvFlows map[FlowID]*ReceivingFlow

	amtSentInterval uint64
	amtRecvInterval uint64
	amtSentTotal    uint64
	amtRecvTotal    uint64
}

// NewHost constructs an unattached Host; AttachLink must be called before
// it can send or receive.
func NewHost(id HostID) *Host {
	return &Host{
		ID:        id,
		sendFlows: make(map[FlowID]*SendingFlow),
		recvFlows: make(map[FlowID]*ReceivingFlow),
	}
}

// AttachLink records the single link this host is wired to.
func (h *Host) AttachLink(linkID LinkID) { h.Link = linkID }

// RegisterSendFlow adds a sending flow the host originates.
func (h *Host) RegisterSendFlow(f *SendingFlow) { h.sendFlows[f.ID] = f }

// Send pushes an outbound packet onto the host's attached link.
func (h *Host) Send(env *Environment, pkt Packet) {
	h.amtSentTotal += uint64(pkt.Length)
	h.amtSentInterval += uint64(pkt.Length)
	link := env.Link(h.Link)
	link.Enqueue(env, pkt, h.ID)
}

// ReceivePacket implements Endpoint. Hosts never originate or consume
// RoutingUpdate packets; one reaching a host indicates a misbehaving
// router and is logged and ignored rather than crashing the simulation.
func (h *Host) ReceivePacket(env *Environment, pkt Packet) {
	h.amtRecvTotal += uint64(pkt.Length)
	h.amtRecvInterval += uint64(pkt.Length)

	if pkt.Kind == KindRoutingUpdate {
		logrus.Warnf("host %d: received unexpected RoutingUpdate packet, ignoring", h.ID)
		return
	}

	// Feedback addressed to a flow this host sends: Ack or Fin-ack.
	if sf, ok := h.sendFlows[pkt.FlowID]; ok {
		sf.ReceivePacket(env, pkt)
		return
	}

	// Otherwise this host is the receiving side; autocreate on first contact.
	rf, ok := h.recvFlows[pkt.FlowID]
	if !ok {
		rf = NewReceivingFlow(pkt.FlowID, pkt.Src, h.ID)
		h.recvFlows[pkt.FlowID] = rf
	}
	rf.ReceivePacket(env, pkt)
}

// ResetInterval zeroes the per-reporting-interval byte counters.
func (h *Host) ResetInterval() {
	h.amtSentInterval = 0
	h.amtRecvInterval = 0
}

// SendRateMbps returns the host's send throughput over the most recent
// reporting interval.
func (h *Host) SendRateMbps(intervalMs Millis) float64 {
	if intervalMs <= 0 {
		return 0
	}
	return float64(h.amtSentInterval) / float64(intervalMs) / MbpsToBytesPerMs
}

// ReceiveRateMbps returns the host's receive throughput over the most
// recent reporting interval.
func (h *Host) ReceiveRateMbps(intervalMs Millis) float64 {
	if intervalMs <= 0 {
		return 0
	}
	return float64(h.amtRecvInterval) / float64(intervalMs) / MbpsToBytesPerMs
}
