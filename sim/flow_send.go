package sim

import "github.com/sirupsen/logrus"

// FlowState is the sending-side state machine's current phase
// on the wire.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowSending
	FlowFinishing
	FlowDone
)

func (s FlowState) String() string {
	switch s {
	case FlowIdle:
		return "Idle"
	case FlowSending:
		return "Sending"
	case FlowFinishing:
		return "Finishing"
	case FlowDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// SendingFlow is the sender-side Go-Back-N state machine: cumulative-ACK
// windowed delivery with a retransmit timer and a pluggable congestion
// controller (Tahoe or FAST).
type SendingFlow struct {
	ID          FlowID
	SrcHostID   HostID
	DestHostID  HostID
	TotalBytes  uint64
	BytesAcked  uint64
	StartMs     Millis
	EndMs       Millis
	EndSet      bool

	Window float64
	RTO    Millis

	BatchStartSeq  int64
	WindowStartSeq int64
	WindowEndSeq   int64
	WindowStartTs  Millis

	RTTLatest Millis
	SumRTT    Millis
	RTTCount  int
	BaseRTT   Millis

	CC CongestionControl

	DupAck     int
	LastDupTs  Millis

	State FlowState

	batchEpoch int64
	fastActive bool
	finRetransmitEpoch int64

	bytesSentInterval uint64
}

// NewSendingFlow constructs a flow in the Idle state; Start must be
// called (scheduled by the Environment at StartMs) to begin sending.
func NewSendingFlow(id FlowID, src, dest HostID, totalBytes uint64, startMs Millis, ccName string) *SendingFlow {
	return &SendingFlow{
		ID: id, SrcHostID: src, DestHostID: dest,
		TotalBytes: totalBytes, StartMs: startMs,
		Window:        1,
		RTO:           1000, // initial guess; recomputed after the first batch
		BatchStartSeq: 1, WindowStartSeq: 1, WindowEndSeq: 0,
		BaseRTT: Millis(1e18),
		CC:      NewCongestionControl(ccName),
		State:   FlowIdle,
	}
}

// DataRemaining returns the number of bytes not yet cumulatively acked.
func (f *SendingFlow) DataRemaining() uint64 {
	if f.BytesAcked >= f.TotalBytes {
		return 0
	}
	return f.TotalBytes - f.BytesAcked
}

// Start transitions Idle -> Sending and begins the first batch.
func (f *SendingFlow) Start(env *Environment) {
	invariant(f.State == FlowIdle, "flow %d: Start called in state %s", f.ID, f.State)
	f.State = FlowSending
	f.beginBatch(env)
	if interval, ok := f.CC.FastInterval(); ok && !f.fastActive {
		f.fastActive = true
		env.Clock.Schedule(&flowFastTimerEvent{time: env.Clock.Now() + interval, flow: f.ID})
	}
}

// beginBatch opens a new Go-Back-N window starting at BatchStartSeq,
// paces out its Data packets, and arms the retransmit timer.
func (f *SendingFlow) beginBatch(env *Environment) {
	remaining := f.DataRemaining()
	segmentsRemaining := (remaining + DataPacketBytes - 1) / DataPacketBytes
	windowSegs := uint64(f.Window)
	if windowSegs < 1 {
		windowSegs = 1
	}
	if windowSegs > segmentsRemaining {
		windowSegs = segmentsRemaining
	}

	f.WindowStartSeq = f.BatchStartSeq
	f.WindowEndSeq = f.BatchStartSeq + int64(windowSegs) - 1
	f.WindowStartTs = env.Clock.Now()
	f.batchEpoch++
	epoch := f.batchEpoch

	host := env.Hosts[f.SrcHostID]
	link := env.Link(host.Link)
	pacing := Millis(DataPacketBytes / link.RateBpms)

	for i, seq := 0, f.WindowStartSeq; seq <= f.WindowEndSeq; i, seq = i+1, seq+1 {
		env.Clock.Schedule(&flowSendDataEvent{
			time: env.Clock.Now() + Millis(i)*pacing,
			flow: f.ID,
			seq:  seq,
		})
	}

	env.Clock.Schedule(&flowRetransmitEvent{
		time:  f.WindowStartTs + f.RTO,
		flow:  f.ID,
		epoch: epoch,
	})
}

// sendData emits a single Data packet in the current batch.
func (f *SendingFlow) sendData(env *Environment, seq int64) {
	if f.State != FlowSending {
		return
	}
	host := env.Hosts[f.SrcHostID]
	pkt := NewDataPacket(f.SrcHostID, f.ID, f.DestHostID, seq, env.Clock.Now())
	host.Send(env, pkt)
	f.bytesSentInterval += DataPacketBytes
}

// ResetInterval zeroes the per-reporting-interval byte counter.
func (f *SendingFlow) ResetInterval() { f.bytesSentInterval = 0 }

// SendRateMbps returns this flow's send throughput over the most recent
// reporting interval.
func (f *SendingFlow) SendRateMbps(intervalMs Millis) float64 {
	if intervalMs <= 0 {
		return 0
	}
	return float64(f.bytesSentInterval) / float64(intervalMs) / MbpsToBytesPerMs
}

// retransmitBatch re-sends every Data packet from BatchStartSeq through
// WindowEndSeq, per Go-Back-N semantics, and re-arms the retransmit timer.
func (f *SendingFlow) retransmitBatch(env *Environment) {
	host := env.Hosts[f.SrcHostID]
	link := env.Link(host.Link)
	pacing := Millis(DataPacketBytes / link.RateBpms)

	f.batchEpoch++
	epoch := f.batchEpoch
	f.WindowStartTs = env.Clock.Now()

	for i, seq := 0, f.BatchStartSeq; seq <= f.WindowEndSeq; i, seq = i+1, seq+1 {
		env.Clock.Schedule(&flowSendDataEvent{
			time: env.Clock.Now() + Millis(i)*pacing,
			flow: f.ID,
			seq:  seq,
		})
	}
	env.Clock.Schedule(&flowRetransmitEvent{
		time:  f.WindowStartTs + f.RTO,
		flow:  f.ID,
		epoch: epoch,
	})
}

// ReceivePacket handles Ack and Fin feedback addressed to this flow as
// sender (routed here by Host.ReceivePacket).
func (f *SendingFlow) ReceivePacket(env *Environment, pkt Packet) {
	switch pkt.Kind {
	case KindAck:
		f.handleAck(env, pkt)
	case KindFin:
		f.handleFinAck(env, pkt)
	default:
		invariant(false, "sending flow %d: unexpected packet kind %s", f.ID, pkt.Kind)
	}
}

func (f *SendingFlow) sampleRTT(env *Environment, pktTs Millis) {
	rtt := env.Clock.Now() - pktTs
	invariant(rtt >= 0, "flow %d: negative RTT sample (%v)", f.ID, rtt)
	f.RTTLatest = rtt
	f.SumRTT += rtt
	f.RTTCount++
	if rtt < f.BaseRTT {
		f.BaseRTT = rtt
	}
}

func (f *SendingFlow) handleAck(env *Environment, pkt Packet) {
	if pkt.Timestamp < f.WindowStartTs {
		return // StaleRoutingInfo-style: stale ACK, ignored
	}
	f.sampleRTT(env, pkt.Timestamp)

	req := pkt.SeqNum
	switch {
	case req > f.BatchStartSeq:
		newlyAcked := uint64(req - f.BatchStartSeq)
		credit := newlyAcked * DataPacketBytes
		if credit > f.DataRemaining() {
			credit = f.DataRemaining()
		}
		f.BytesAcked += credit
		f.BatchStartSeq = req
		f.DupAck = 0
		for i := uint64(0); i < newlyAcked; i++ {
			f.CC.OnSegmentAcked(f)
		}

		if req > f.WindowEndSeq {
			f.onBatchComplete(env)
		}

	case req == f.BatchStartSeq:
		if env.Clock.Now()-f.LastDupTs > 16 {
			f.DupAck++
			f.LastDupTs = env.Clock.Now()
			if f.DupAck == 3 {
				f.DupAck = 0
				f.CC.OnTripleDupAck(f)
				f.retransmitBatch(env)
			}
		}
	default:
		// req < BatchStartSeq: stale duplicate from before current progress.
	}
}

// onBatchComplete recomputes the retransmit timeout from the freshest RTT
// sample and either opens the next batch or moves to Finishing.
func (f *SendingFlow) onBatchComplete(env *Environment) {
	if f.RTTLatest > 0 {
		f.RTO = 3 * f.RTTLatest
	}
	if f.DataRemaining() == 0 {
		f.State = FlowFinishing
		f.sendFin(env)
		return
	}
	f.beginBatch(env)
}

func (f *SendingFlow) sendFin(env *Environment) {
	host := env.Hosts[f.SrcHostID]
	pkt := NewFinPacket(f.SrcHostID, f.ID, f.DestHostID, env.Clock.Now())
	host.Send(env, pkt)

	f.finRetransmitEpoch++
	epoch := f.finRetransmitEpoch
	env.Clock.Schedule(&flowFinRetransmitEvent{
		time:  env.Clock.Now() + f.RTO,
		flow:  f.ID,
		epoch: epoch,
	})
}

func (f *SendingFlow) handleFinAck(env *Environment, pkt Packet) {
	if f.State != FlowFinishing {
		return
	}
	f.EndMs = env.Clock.Now()
	f.EndSet = true
	f.State = FlowDone
	f.fastActive = false
	logrus.Debugf("flow %d: completed at %.3fms (started %.3fms)", f.ID, float64(f.EndMs), float64(f.StartMs))
}

// AvgRTT returns the mean RTT sample observed so far, or 0 if none.
func (f *SendingFlow) AvgRTT() Millis {
	if f.RTTCount == 0 {
		return 0
	}
	return f.SumRTT / Millis(f.RTTCount)
}
