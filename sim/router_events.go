package sim

// routerBroadcastEvent drives a router's periodic control-plane tick: per
// spec.md §4.4 this both recomputes the forwarding table from the
// freshest per-link distance vectors (so a link that's gone silent is
// re-checked against the 2*IntervalMs staleness bound even with no
// inbound RoutingUpdate to trigger it) and broadcasts the result. It
// reschedules itself every IntervalMs for the lifetime of the simulation
// — there is no termination condition short of the clock running out,
// matching a router's always-on control plane.
type routerBroadcastEvent struct {
	time   Millis
	router RouterID
}

func (e *routerBroadcastEvent) Timestamp() Millis { return e.time }
func (e *routerBroadcastEvent) Execute(env *Environment) {
	r := env.Routers[e.router]
	r.recompute(env)
	r.broadcast(env)
	env.Clock.Schedule(&routerBroadcastEvent{
		time:   env.Clock.Now() + r.IntervalMs,
		router: e.router,
	})
}
