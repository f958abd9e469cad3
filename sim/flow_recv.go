package sim

// ReceivingFlow is the receiver-side half of a flow: cumulative-ACK
// bookkeeping with no windowing of its own. Created
// on-demand by Host.ReceivePacket on first contact with a new flow ID.
type ReceivingFlow struct {
	ID              FlowID
	SrcHostID       HostID
	DestHostID      HostID
	NextExpectedSeq int64
	Done            bool

	bytesRecvInterval uint64
}

// NewReceivingFlow constructs a receiving flow awaiting sequence 1.
func NewReceivingFlow(id FlowID, src, dest HostID) *ReceivingFlow {
	return &ReceivingFlow{ID: id, SrcHostID: src, DestHostID: dest, NextExpectedSeq: 1}
}

// ReceivePacket implements the receiver half of Go-Back-N: a Data packet
// whose seq matches NextExpectedSeq advances it by one; every Data packet
// (in order or not) gets a cumulative Ack echoing the current
// NextExpectedSeq and the original packet's timestamp, so the sender can
// compute an exact RTT. A Fin gets a Fin reply and terminates the flow.
func (rf *ReceivingFlow) ReceivePacket(env *Environment, pkt Packet) {
	switch pkt.Kind {
	case KindData:
		if pkt.SeqNum == rf.NextExpectedSeq {
			rf.NextExpectedSeq++
		}
		rf.bytesRecvInterval += uint64(pkt.Length)
		ack := NewAckPacket(rf.DestHostID, rf.ID, rf.SrcHostID, rf.NextExpectedSeq, pkt.Timestamp)
		env.Hosts[rf.DestHostID].Send(env, ack)
	case KindFin:
		reply := NewFinPacket(rf.DestHostID, rf.ID, rf.SrcHostID, pkt.Timestamp)
		env.Hosts[rf.DestHostID].Send(env, reply)
		rf.Done = true
	default:
		invariant(false, "receiving flow %d: unexpected packet kind %s", rf.ID, pkt.Kind)
	}
}

// ResetInterval zeroes the per-reporting-interval byte counter.
func (rf *ReceivingFlow) ResetInterval() { rf.bytesRecvInterval = 0 }

// ReceiveRateMbps returns this flow's receive throughput over the most
// recent reporting interval.
func (rf *ReceivingFlow) ReceiveRateMbps(intervalMs Millis) float64 {
	if intervalMs <= 0 {
		return 0
	}
	return float64(rf.bytesRecvInterval) / float64(intervalMs) / MbpsToBytesPerMs
}
