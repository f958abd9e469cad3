package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Router implements distance-vector routing: it maintains a per-neighbor
// distance table (Via), a forwarding table keyed by destination host ID,
// and periodically broadcasts its current minimum-distance map on every
// non-host-facing link.
type Router struct {
	ID    RouterID
	Links map[LinkID]*Link

	// HostLinks maps a link ID to the host ID directly attached on its
	// far side, for links that terminate at a host rather than a router.
	HostLinks map[LinkID]HostID

	Forwarding map[NodeID]LinkID  // dest host ID -> chosen outbound link
	MinDist    map[NodeID]Millis  // dest host ID -> best known distance
	Via        map[LinkID]map[NodeID]Millis // per-neighbor-link distance vectors

	lastUpdate map[LinkID]Millis
	everUpdated map[LinkID]bool

	IntervalMs Millis

	unroutableDrops int
	dataplaneAttempts int
}

// NewRouter constructs a Router with the given broadcast interval.
func NewRouter(id RouterID, intervalMs Millis) *Router {
	return &Router{
		ID:          id,
		Links:       make(map[LinkID]*Link),
		HostLinks:   make(map[LinkID]HostID),
		Forwarding:  make(map[NodeID]LinkID),
		MinDist:     map[NodeID]Millis{NodeID(id): 0},
		Via:         make(map[LinkID]map[NodeID]Millis),
		lastUpdate:  make(map[LinkID]Millis),
		everUpdated: make(map[LinkID]bool),
		IntervalMs:  intervalMs,
	}
}

// AttachLink registers a link incident to this router. If isHostLink is
// true, the link terminates directly at host hostID; otherwise hostID is
// ignored.
func (r *Router) AttachLink(link *Link, hostID HostID, isHostLink bool) {
	r.Links[link.ID] = link
	if isHostLink {
		r.HostLinks[link.ID] = hostID
		r.MinDist[hostID] = 0
		r.Forwarding[hostID] = link.ID
	}
}

// ReceivePacket implements Endpoint: a RoutingUpdate is consumed by the
// control plane; anything else is a data-plane packet forwarded per the
// current forwarding table, or silently dropped if the destination is not
// (yet) reachable.
func (r *Router) ReceivePacket(env *Environment, pkt Packet) {
	if pkt.Kind == KindRoutingUpdate {
		r.handleRoutingUpdate(env, pkt)
		return
	}

	r.dataplaneAttempts++
	linkID, ok := r.Forwarding[pkt.Dest]
	if !ok {
		r.unroutableDrops++
		logrus.Debugf("router %d: no forwarding entry for dest %d, dropping %s pkt", r.ID, pkt.Dest, pkt.Kind)
		return
	}
	link := r.Links[linkID]
	link.Enqueue(env, pkt, r.ID)
}

func (r *Router) handleRoutingUpdate(env *Environment, pkt Packet) {
	linkID := pkt.Src // overloaded: carries the originating link ID
	link, ok := r.Links[linkID]
	if !ok {
		logrus.Warnf("router %d: RoutingUpdate referenced unknown link %d", r.ID, linkID)
		return
	}
	cost := link.GetWeight()
	dv := make(map[NodeID]Millis, len(pkt.DVPayload))
	for node, d := range pkt.DVPayload {
		dv[node] = d + cost
	}
	r.Via[linkID] = dv
	r.lastUpdate[linkID] = env.Clock.Now()
	r.everUpdated[linkID] = true
	r.recompute(env)
}

// recompute rebuilds MinDist/Forwarding from the freshest per-link
// distance vectors. Stale vectors
// (older than 2*IntervalMs) are ignored, giving implicit failure
// detection. If the result differs from the previous table, a broadcast
// is triggered immediately (in addition to the periodic one).
func (r *Router) recompute(env *Environment) {
	now := env.Clock.Now()
	newMinDist := map[NodeID]Millis{NodeID(r.ID): 0}
	newForwarding := make(map[NodeID]LinkID)

	for hostID, linkID := range r.HostLinks {
		newMinDist[hostID] = 0
		newForwarding[hostID] = linkID
	}

	// Deterministic iteration: sort link IDs so tie-break ("smallest link
	// id wins") is reproducible regardless of map iteration order.
	linkIDs := make([]LinkID, 0, len(r.Links))
	for id := range r.Links {
		if _, isHostLink := r.HostLinks[id]; isHostLink {
			continue
		}
		linkIDs = append(linkIDs, id)
	}
	sort.Slice(linkIDs, func(i, j int) bool { return linkIDs[i] < linkIDs[j] })

	// Gather every live neighbor's candidate distance per destination, in
	// ascending link-ID order, so that floats.MinIdx's "first occurrence
	// of the minimum" tie-break lands on the smallest link ID.
	candidateDist := make(map[NodeID][]float64)
	candidateLink := make(map[NodeID][]LinkID)

	for _, linkID := range linkIDs {
		if !r.everUpdated[linkID] {
			continue
		}
		if now-r.lastUpdate[linkID] > 2*r.IntervalMs {
			continue // StaleRoutingInfo: silently ignored
		}
		for dest, dist := range r.Via[linkID] {
			if dest == NodeID(r.ID) {
				continue
			}
			candidateDist[dest] = append(candidateDist[dest], float64(dist))
			candidateLink[dest] = append(candidateLink[dest], linkID)
		}
	}

	for dest, dists := range candidateDist {
		best := floats.MinIdx(dists)
		dist := Millis(dists[best])
		linkID := candidateLink[dest][best]
		if cur, known := newMinDist[dest]; !known || dist < cur {
			newMinDist[dest] = dist
			newForwarding[dest] = linkID
		}
	}

	changed := !equalDistMaps(r.MinDist, newMinDist) || !equalFwdMaps(r.Forwarding, newForwarding)
	r.MinDist = newMinDist
	r.Forwarding = newForwarding

	if changed {
		r.broadcast(env)
	}
}

// broadcast sends the current MinDist map on every non-host-facing link.
func (r *Router) broadcast(env *Environment) {
	for linkID, link := range r.Links {
		if _, isHostLink := r.HostLinks[linkID]; isHostLink {
			continue
		}
		pkt := NewRoutingUpdatePacket(linkID, r.MinDist, env.Clock.Now())
		link.Enqueue(env, pkt, r.ID)
	}
}

func equalDistMaps(a, b map[NodeID]Millis) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func equalFwdMaps(a, b map[NodeID]LinkID) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// UnroutableDrops returns the number of data-plane packets dropped
// because no forwarding entry existed for their destination.
func (r *Router) UnroutableDrops() int { return r.unroutableDrops }
