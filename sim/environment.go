package sim

import "github.com/sirupsen/logrus"

// Environment owns every entity registry, assigns IDs, runs the virtual
// clock in report-interval slices, and drives metrics collection. It is
// the only place in the system with truly global state; everything else
// reaches the clock and the registries through an *Environment reference
// passed at well-defined call points.
type Environment struct {
	Clock *Clock

	Hosts     map[HostID]*Host
	Routers   map[RouterID]*Router
	Links     map[LinkID]*Link
	SendFlows map[FlowID]*SendingFlow

	DurationMs      Millis
	ReportIntervalMs Millis

	Sink MetricsSink

	nextID NodeID
	hasRun bool
}

// NewEnvironment constructs an empty Environment. Entities are added via
// NewHost/NewRouter/NewLink/NewSendingFlow and registered with
// AddHost/AddRouter/AddLink/AddSendFlow by the topology loader.
func NewEnvironment(durationMs, reportIntervalMs Millis) *Environment {
	return &Environment{
		Clock:            NewClock(),
		Hosts:            make(map[HostID]*Host),
		Routers:          make(map[RouterID]*Router),
		Links:            make(map[LinkID]*Link),
		SendFlows:        make(map[FlowID]*SendingFlow),
		DurationMs:       durationMs,
		ReportIntervalMs: reportIntervalMs,
		Sink:             NopSink{},
		nextID:           1,
	}
}

// NextID returns a fresh, monotonically increasing ID from the single
// shared ID space hosts, routers, links, and flows all draw from.
func (env *Environment) NextID() NodeID {
	id := env.nextID
	env.nextID++
	return id
}

// AddHost registers h. Panics (InternalInvariantViolation) on ID reuse.
func (env *Environment) AddHost(h *Host) {
	invariant(env.Hosts[h.ID] == nil, "duplicate host id %d", h.ID)
	env.Hosts[h.ID] = h
}

// AddRouter registers r.
func (env *Environment) AddRouter(r *Router) {
	invariant(env.Routers[r.ID] == nil, "duplicate router id %d", r.ID)
	env.Routers[r.ID] = r
}

// AddLink registers l.
func (env *Environment) AddLink(l *Link) {
	invariant(env.Links[l.ID] == nil, "duplicate link id %d", l.ID)
	env.Links[l.ID] = l
}

// AddSendFlow registers f on both the Environment (for lookup by flow
// events) and on its source host (so inbound Acks route to it).
func (env *Environment) AddSendFlow(f *SendingFlow) {
	invariant(env.SendFlows[f.ID] == nil, "duplicate flow id %d", f.ID)
	env.SendFlows[f.ID] = f
	env.Hosts[f.SrcHostID].RegisterSendFlow(f)
}

// Link looks up a link by ID, panicking if it doesn't exist — every
// caller of this method already validated the ID at topology-load time,
// so a miss here is an internal bug, not routine input.
func (env *Environment) Link(id LinkID) *Link {
	l, ok := env.Links[id]
	invariant(ok, "no such link %d", id)
	return l
}

// Endpoint is implemented by Host and Router: anything a Link can deliver
// a packet to.
type Endpoint interface {
	ReceivePacket(env *Environment, pkt Packet)
}

// DeliverToEndpoint hands pkt to whichever host or router owns id.
func (env *Environment) DeliverToEndpoint(id NodeID, pkt Packet) {
	if h, ok := env.Hosts[id]; ok {
		h.ReceivePacket(env, pkt)
		return
	}
	if r, ok := env.Routers[id]; ok {
		r.ReceivePacket(env, pkt)
		return
	}
	invariant(false, "no host or router with id %d to deliver packet to", id)
}

// Run starts every sending flow's start timer and every router's
// broadcast timer, then advances the clock in ReportIntervalMs slices
// until DurationMs, collecting and emitting a Snapshot at each boundary.
// Panics if called more than once.
func (env *Environment) Run() {
	invariant(!env.hasRun, "Environment.Run called more than once")
	env.hasRun = true

	for _, f := range env.SendFlows {
		env.Clock.Schedule(&flowStartEvent{time: f.StartMs, flow: f.ID})
	}
	for _, r := range env.Routers {
		env.Clock.Schedule(&routerBroadcastEvent{time: 0, router: r.ID})
	}

	logrus.Infof("simulation starting: duration=%.1fms report-interval=%.1fms hosts=%d routers=%d links=%d flows=%d",
		float64(env.DurationMs), float64(env.ReportIntervalMs), len(env.Hosts), len(env.Routers), len(env.Links), len(env.SendFlows))

	t := Millis(0)
	for t < env.DurationMs {
		next := t + env.ReportIntervalMs
		if next > env.DurationMs {
			next = env.DurationMs
		}
		env.Clock.RunUntil(next, env)
		env.collect(next)
		t = next
	}

	logrus.Infof("simulation complete at %.1fms", float64(env.DurationMs))
}

// collect builds and emits one Snapshot, then resets every entity's
// per-interval counters.
func (env *Environment) collect(ts Millis) {
	snap := Snapshot{
		Time:            ts,
		HostSendRate:    make(map[HostID]float64, len(env.Hosts)),
		HostReceiveRate: make(map[HostID]float64, len(env.Hosts)),
		FlowSendRate:    make(map[FlowID]float64, len(env.SendFlows)),
		FlowReceiveRate: make(map[FlowID]float64, len(env.SendFlows)),
		FlowAvgRTT:      make(map[FlowID]float64, len(env.SendFlows)),
		FlowWindowSize:  make(map[FlowID]float64, len(env.SendFlows)),
		PacketLoss:      make(map[LinkID]int, len(env.Links)),
		BufferOccupancy: make(map[LinkID]float64, len(env.Links)),
		LinkRate:        make(map[LinkID]float64, len(env.Links)),
	}

	for id, h := range env.Hosts {
		snap.HostSendRate[id] = h.SendRateMbps(env.ReportIntervalMs)
		snap.HostReceiveRate[id] = h.ReceiveRateMbps(env.ReportIntervalMs)
		h.ResetInterval()
	}
	for id, l := range env.Links {
		snap.PacketLoss[id] = l.Drops()
		snap.BufferOccupancy[id] = l.BufferOccupancy()
		snap.LinkRate[id] = l.FlowRateMbps(env.ReportIntervalMs)
		l.ResetInterval()
	}
	for id, f := range env.SendFlows {
		snap.FlowSendRate[id] = f.SendRateMbps(env.ReportIntervalMs)
		snap.FlowAvgRTT[id] = float64(f.AvgRTT())
		snap.FlowWindowSize[id] = f.Window
		f.ResetInterval()

		if rf, ok := env.findReceivingFlow(f.ID, f.DestHostID); ok {
			snap.FlowReceiveRate[id] = rf.ReceiveRateMbps(env.ReportIntervalMs)
			rf.ResetInterval()
		}
	}

	env.Sink.Emit(snap)
}

func (env *Environment) findReceivingFlow(id FlowID, destHostID HostID) (*ReceivingFlow, bool) {
	h, ok := env.Hosts[destHostID]
	if !ok {
		return nil, false
	}
	rf, ok := h.recvFlows[id]
	return rf, ok
}
