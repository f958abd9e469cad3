package sim

// Snapshot is one reporting-interval's worth of metrics across every
// entity in the topology.
// The Environment builds one of these per report boundary and hands it to
// a MetricsSink; rendering it into plots is out of scope — the sink's job
// is only to receive and persist it.
type Snapshot struct {
	Time Millis

	HostSendRate    map[HostID]float64
	HostReceiveRate map[HostID]float64

	FlowSendRate    map[FlowID]float64
	FlowReceiveRate map[FlowID]float64
	FlowAvgRTT      map[FlowID]float64
	FlowWindowSize  map[FlowID]float64

	PacketLoss      map[LinkID]int
	BufferOccupancy map[LinkID]float64
	LinkRate        map[LinkID]float64
}

// MetricsSink receives one Snapshot per reporting interval. Implementations
// live in sim/metricsio; the Environment only depends on this interface.
type MetricsSink interface {
	Emit(snap Snapshot)
}

// NopSink discards every snapshot. Useful as a default when the caller
// only wants the final aggregate counters (e.g. in tests).
type NopSink struct{}

func (NopSink) Emit(Snapshot) {}
