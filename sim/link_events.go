package sim

// linkServiceDoneEvent fires when a link finishes "serializing" the head
// packet of one of its directional buffers.
type linkServiceDoneEvent struct {
	time  Millis
	link  LinkID
	fromA bool
}

func (e *linkServiceDoneEvent) Timestamp() Millis { return e.time }
func (e *linkServiceDoneEvent) Execute(env *Environment) {
	link := env.Link(e.link)
	link.completeService(env, e.fromA)
}

// linkDeliverEvent fires after a packet's propagation delay has elapsed,
// handing it to the destination endpoint.
type linkDeliverEvent struct {
	time Millis
	pkt  Packet
	dest NodeID
}

func (e *linkDeliverEvent) Timestamp() Millis { return e.time }
func (e *linkDeliverEvent) Execute(env *Environment) {
	env.DeliverToEndpoint(e.dest, e.pkt)
}
