package sim

import "testing"

// buildTwoHostEnv wires a minimal host-link-host topology with generous
// link rate/capacity so the flow-level state machine, not link
// contention, is what's under test.
func buildTwoHostEnv(totalBytes uint64, cc string) (*Environment, *SendingFlow) {
	env := NewEnvironment(60000, 1000)
	h1 := NewHost(1)
	h2 := NewHost(2)
	env.AddHost(h1)
	env.AddHost(h2)

	link := NewLink(3, 1, 2, 100, 5, 1<<20)
	env.AddLink(link)
	h1.AttachLink(3)
	h2.AttachLink(3)

	flow := NewSendingFlow(4, 1, 2, totalBytes, 0, cc)
	env.AddSendFlow(flow)
	return env, flow
}

func TestSendingFlow_EndToEnd_CompletesAndConservesBytes(t *testing.T) {
	// GIVEN a flow sending exactly 3 data segments over an uncongested link
	totalBytes := uint64(3 * DataPacketBytes)
	env, flow := buildTwoHostEnv(totalBytes, "Tahoe")

	// WHEN the simulation runs to completion
	env.Clock.Schedule(&flowStartEvent{time: 0, flow: flow.ID})
	env.Clock.RunUntil(env.DurationMs, env)

	// THEN the flow finished and every byte was cumulatively acked
	if flow.State != FlowDone {
		t.Fatalf("flow.State = %v, want Done", flow.State)
	}
	if flow.BytesAcked != totalBytes {
		t.Errorf("BytesAcked = %d, want %d", flow.BytesAcked, totalBytes)
	}
	if !flow.EndSet || flow.EndMs <= flow.StartMs {
		t.Errorf("flow should have recorded an end time after its start time")
	}

	// AND the destination created a receiving flow that reached its
	// terminal state
	rf, ok := env.Hosts[2].recvFlows[flow.ID]
	if !ok {
		t.Fatal("destination host never created a receiving flow")
	}
	if !rf.Done {
		t.Error("receiving flow should be marked Done once it acked the Fin")
	}
}

func TestSendingFlow_AvgRTT_PositiveAfterFirstBatch(t *testing.T) {
	// GIVEN a flow that has completed at least one round trip
	env, flow := buildTwoHostEnv(uint64(DataPacketBytes), "Tahoe")
	env.Clock.Schedule(&flowStartEvent{time: 0, flow: flow.ID})
	env.Clock.RunUntil(env.DurationMs, env)

	// THEN the sampled average RTT is strictly positive and finite
	rtt := flow.AvgRTT()
	if rtt <= 0 {
		t.Errorf("AvgRTT() = %v, want > 0", rtt)
	}
}

func TestSendingFlow_HandleAck_IgnoresStaleAckBeforeWindowStart(t *testing.T) {
	// GIVEN a flow mid-batch
	env, flow := buildTwoHostEnv(uint64(5*DataPacketBytes), "Tahoe")
	flow.State = FlowSending
	flow.WindowStartTs = 100
	flow.BatchStartSeq = 3

	// WHEN an ack arrives timestamped before the current window even opened
	stale := NewAckPacket(2, flow.ID, 1, 4, 50)
	flow.ReceivePacket(env, stale)

	// THEN it changes nothing — no progress, no RTT sample
	if flow.BatchStartSeq != 3 {
		t.Errorf("BatchStartSeq = %d, want unchanged 3", flow.BatchStartSeq)
	}
	if flow.RTTCount != 0 {
		t.Errorf("RTTCount = %d, want 0 (stale ack shouldn't sample RTT)", flow.RTTCount)
	}
}

func TestReceivingFlow_ReceivePacket_CumulativeAckMonotonic(t *testing.T) {
	// GIVEN a fresh receiving flow, on a host wired to a link so its acks
	// have somewhere to go
	env := newTestEnv()
	host10 := NewHost(10)
	env.AddHost(host10)
	link := NewLink(99, 10, 999, 1, 1, 1<<20)
	env.AddLink(link)
	host10.AttachLink(99)
	rf := NewReceivingFlow(1, 20, 10)

	// WHEN data packets arrive out of order (2 before 1)
	rf.ReceivePacket(env, NewDataPacket(20, 1, 10, 2, 0))
	if rf.NextExpectedSeq != 1 {
		t.Fatalf("NextExpectedSeq after out-of-order packet = %d, want unchanged 1", rf.NextExpectedSeq)
	}
	rf.ReceivePacket(env, NewDataPacket(20, 1, 10, 1, 0))

	// THEN NextExpectedSeq advances only on in-order arrival, never backwards
	if rf.NextExpectedSeq != 2 {
		t.Errorf("NextExpectedSeq = %d, want 2", rf.NextExpectedSeq)
	}
}
