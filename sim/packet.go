package sim

// Packet is an immutable-once-sent message record traversing the topology.
// For RoutingUpdate packets, Src is overloaded to carry the originating
// link's ID (not a node's) and Dest is ignored; DVPayload is non-nil only
// for that kind.
type Packet struct {
	Src       NodeID
	FlowID    NodeID
	Dest      NodeID
	Timestamp Millis
	Length    uint32
	Kind      PacketKind
	SeqNum    int64
	DVPayload map[NodeID]Millis
}

// NewDataPacket builds a Data packet. timestamp is set at send time and is
// echoed back unchanged in the Ack, giving the sender an exact RTT sample.
func NewDataPacket(src, flowID, dest NodeID, seq int64, ts Millis) Packet {
	return Packet{
		Src: src, FlowID: flowID, Dest: dest,
		Timestamp: ts, Length: DataPacketBytes, Kind: KindData, SeqNum: seq,
	}
}

// NewAckPacket builds a cumulative Ack. ts must be the data packet's own
// timestamp (not the current clock), per the RTT-sampling convention.
func NewAckPacket(src, flowID, dest NodeID, nextExpected int64, ts Millis) Packet {
	return Packet{
		Src: src, FlowID: flowID, Dest: dest,
		Timestamp: ts, Length: AckPacketBytes, Kind: KindAck, SeqNum: nextExpected,
	}
}

// NewFinPacket builds a Fin (or Fin-ack) packet. Both directions use the
// same constructor and carry KindFin with FinSeqNum; which flow handles
// one is decided by the receiving host's flow lookup, not by the packet.
func NewFinPacket(src, flowID, dest NodeID, ts Millis) Packet {
	return Packet{
		Src: src, FlowID: flowID, Dest: dest,
		Timestamp: ts, Length: FinPacketBytes, Kind: KindFin, SeqNum: FinSeqNum,
	}
}

// NewRoutingUpdatePacket builds a distance-vector broadcast. linkID is the
// link the packet will be enqueued on, stashed in Src per the wire
// convention used by the routing control plane.
func NewRoutingUpdatePacket(linkID NodeID, dv map[NodeID]Millis, ts Millis) Packet {
	cp := make(map[NodeID]Millis, len(dv))
	for k, v := range dv {
		cp[k] = v
	}
	return Packet{
		Src: linkID, Dest: 0, Timestamp: ts,
		Length: RoutingUpdatePacketBytes, Kind: KindRoutingUpdate, SeqNum: 0, DVPayload: cp,
	}
}
