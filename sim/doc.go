// Package sim implements the discrete-event core of the network simulator:
// the virtual clock and event queue, packets, links, hosts, routers, and
// the per-flow reliable-delivery state machines (Go-Back-N with Tahoe or
// FAST congestion control). Topology loading and metrics output live in
// the sim/topology and sim/metricsio subpackages.
package sim
