package sim

// NodeID is a globally unique integer assigned monotonically by the
// Environment to hosts, routers, links, and flows. IDs never collide
// across kinds, so a single integer space is safe to use as the key into
// every registry the Environment owns.
type NodeID int64

// Millis is a virtual-time duration or timestamp, in simulated milliseconds.
// Fractional values are routine (serialization delay is length/rate).
type Millis float64

// These are aliases, not distinct types: hosts, routers, links, and flows
// draw from the same monotonic ID space, so a HostID and
// a LinkID are interchangeable with a bare NodeID in every registry. The
// names exist only to document intent at call sites.
type (
	HostID   = NodeID
	RouterID = NodeID
	LinkID   = NodeID
	FlowID   = NodeID
)

// PacketKind discriminates the four wire message types the simulator moves
// across links. A Data/Ack/Fin packet's SeqNum must be >= 1 (or -1 for the
// Fin packets, by convention below); RoutingUpdate packets always carry
// SeqNum 0 and overload Src to mean the originating link ID.
type PacketKind int

const (
	KindData PacketKind = iota
	KindAck
	KindFin
	KindRoutingUpdate
)

func (k PacketKind) String() string {
	switch k {
	case KindData:
		return "Data"
	case KindAck:
		return "Ack"
	case KindFin:
		return "Fin"
	case KindRoutingUpdate:
		return "RoutingUpdate"
	default:
		return "Unknown"
	}
}

// Fixed packet sizes in bytes, per spec.
const (
	DataPacketBytes          = 1024
	AckPacketBytes           = 64
	FinPacketBytes           = 64
	RoutingUpdatePacketBytes = 1024
)

// FinSeqNum is the sentinel sequence number carried by Fin/Fin-ack packets.
// Both sender and receiver match Fin packets on Kind alone, never on
// SeqNum (see DESIGN.md for the reasoning).
const FinSeqNum int64 = -1

// MbpsToBytesPerMs converts a link rate expressed in the external JSON
// schema's Mbps unit into the internal bytes-per-millisecond unit.
// 1 Mbps = 1e6 bits/s = 125000 bytes/s = 125 bytes/ms, but the topology
// schema's rates are calibrated against a 1048576-byte megabyte, giving
// the conversion factor the spec names explicitly: 1 Mbps = 131.072 B/ms.
const MbpsToBytesPerMs = 131.072
