// Package topology loads the JSON topology descriptor that configures a
// run and builds a *sim.Environment from it. Parsing this file and the
// CLI flags that drive a run sit outside the simulator core; this
// package is that external collaborator, using encoding/json.
package topology

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/netsim/netsim/sim"
)

// LinkEndpoint identifies one side of a link: a 1-based index into
// either the Hosts or the Routers list.
type LinkEndpoint struct {
	Kind  string // "H" or "R"
	Index int    // 1-based
}

func (e *LinkEndpoint) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("link endpoint: expected [kind, index] pair: %w", err)
	}
	if err := json.Unmarshal(pair[0], &e.Kind); err != nil {
		return fmt.Errorf("link endpoint kind: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Index); err != nil {
		return fmt.Errorf("link endpoint index: %w", err)
	}
	return nil
}

// LinkSpec is one entry of the topology file's "Links" array:
// [rate_Mbps, delay_ms, cap_KB, endpointA, endpointB].
type LinkSpec struct {
	RateMbps float64
	DelayMs  float64
	CapKB    int
	A, B     LinkEndpoint
}

func (l *LinkSpec) UnmarshalJSON(data []byte) error {
	var raw [5]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("link spec: expected 5-element array: %w", err)
	}
	if err := json.Unmarshal(raw[0], &l.RateMbps); err != nil {
		return fmt.Errorf("link spec rate: %w", err)
	}
	if err := json.Unmarshal(raw[1], &l.DelayMs); err != nil {
		return fmt.Errorf("link spec delay: %w", err)
	}
	if err := json.Unmarshal(raw[2], &l.CapKB); err != nil {
		return fmt.Errorf("link spec cap: %w", err)
	}
	if err := json.Unmarshal(raw[3], &l.A); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[4], &l.B); err != nil {
		return err
	}
	return nil
}

// FlowSpec is one entry of the topology file's "Flows" array:
// [data_MB, start_s, src_host_1based, dest_host_1based, cc].
type FlowSpec struct {
	DataMB   float64
	StartS   float64
	SrcHost  int
	DestHost int
	CC       string
}

func (f *FlowSpec) UnmarshalJSON(data []byte) error {
	var raw [5]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flow spec: expected 5-element array: %w", err)
	}
	if err := json.Unmarshal(raw[0], &f.DataMB); err != nil {
		return fmt.Errorf("flow spec data: %w", err)
	}
	if err := json.Unmarshal(raw[1], &f.StartS); err != nil {
		return fmt.Errorf("flow spec start: %w", err)
	}
	if err := json.Unmarshal(raw[2], &f.SrcHost); err != nil {
		return fmt.Errorf("flow spec src host: %w", err)
	}
	if err := json.Unmarshal(raw[3], &f.DestHost); err != nil {
		return fmt.Errorf("flow spec dest host: %w", err)
	}
	if err := json.Unmarshal(raw[4], &f.CC); err != nil {
		return fmt.Errorf("flow spec cc: %w", err)
	}
	return nil
}

// File is the top-level topology descriptor.
type File struct {
	Hosts   int        `json:"Hosts"`
	Routers int        `json:"Routers"`
	Links   []LinkSpec `json:"Links"`
	Flows   []FlowSpec `json:"Flows"`
}

// Load reads and parses a topology file. Malformed JSON is a
// ConfigError: the file itself is well-formed-or-not before any topology
// semantics are checked.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &sim.ConfigError{Msg: fmt.Sprintf("reading topology file %q: %v", path, err)}
	}
	var tf File
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, &sim.ConfigError{Msg: fmt.Sprintf("parsing topology file %q: %v", path, err)}
	}
	return &tf, nil
}

// Params are the CLI-supplied knobs that shape the Environment a File is
// built into, independent of the file's own content.
type Params struct {
	DurationMs       sim.Millis
	ReportIntervalMs sim.Millis
	RoutingIntervalMs sim.Millis
}

var validCC = map[string]bool{"Tahoe": true, "FAST": true}

// Build validates tf against the invariants that make a TopologyError
// fatal (out-of-range host/router/link references) and, if valid,
// constructs a populated *sim.Environment: hosts, then routers, then
// links, then flows take IDs from the Environment's shared ID space
// (which starts at 1), links are wired to
// their resolved endpoints, and flows are registered on their source
// hosts.
func Build(tf *File, p Params) (*sim.Environment, error) {
	if tf.Hosts < 0 || tf.Routers < 0 {
		return nil, &sim.TopologyError{Msg: "Hosts and Routers counts must be non-negative"}
	}

	env := sim.NewEnvironment(p.DurationMs, p.ReportIntervalMs)

	hostIDs := make([]sim.HostID, tf.Hosts+1)   // 1-based index into hostIDs[1:]
	routerIDs := make([]sim.RouterID, tf.Routers+1)

	for i := 1; i <= tf.Hosts; i++ {
		id := env.NextID()
		env.AddHost(sim.NewHost(id))
		hostIDs[i] = id
	}
	for i := 1; i <= tf.Routers; i++ {
		id := env.NextID()
		env.AddRouter(sim.NewRouter(id, p.RoutingIntervalMs))
		routerIDs[i] = id
	}

	resolve := func(e LinkEndpoint) (sim.NodeID, bool, error) {
		switch e.Kind {
		case "H":
			if e.Index < 1 || e.Index > tf.Hosts {
				return 0, false, &sim.TopologyError{Msg: fmt.Sprintf("link references host %d, but only %d hosts declared", e.Index, tf.Hosts)}
			}
			return hostIDs[e.Index], true, nil
		case "R":
			if e.Index < 1 || e.Index > tf.Routers {
				return 0, false, &sim.TopologyError{Msg: fmt.Sprintf("link references router %d, but only %d routers declared", e.Index, tf.Routers)}
			}
			return routerIDs[e.Index], false, nil
		default:
			return 0, false, &sim.TopologyError{Msg: fmt.Sprintf("link endpoint kind %q must be \"H\" or \"R\"", e.Kind)}
		}
	}

	for _, ls := range tf.Links {
		a, aIsHost, err := resolve(ls.A)
		if err != nil {
			return nil, err
		}
		b, bIsHost, err := resolve(ls.B)
		if err != nil {
			return nil, err
		}
		if ls.RateMbps <= 0 {
			return nil, &sim.TopologyError{Msg: "link rate must be positive"}
		}
		if ls.CapKB <= 0 {
			return nil, &sim.TopologyError{Msg: "link buffer capacity must be positive"}
		}

		linkID := env.NextID()
		link := sim.NewLink(linkID, a, b,
			ls.RateMbps*sim.MbpsToBytesPerMs, sim.Millis(ls.DelayMs), uint32(ls.CapKB*1024))
		env.AddLink(link)

		attach(env, a, aIsHost, link, b, bIsHost)
		attach(env, b, bIsHost, link, a, aIsHost)
	}

	for _, fs := range tf.Flows {
		if fs.SrcHost < 1 || fs.SrcHost > tf.Hosts || fs.DestHost < 1 || fs.DestHost > tf.Hosts {
			return nil, &sim.TopologyError{Msg: fmt.Sprintf("flow references out-of-range host (src=%d dest=%d, hosts=%d)", fs.SrcHost, fs.DestHost, tf.Hosts)}
		}
		if !validCC[fs.CC] {
			return nil, &sim.TopologyError{Msg: fmt.Sprintf("flow congestion control %q must be \"Tahoe\" or \"FAST\"", fs.CC)}
		}
		if fs.DataMB <= 0 {
			return nil, &sim.TopologyError{Msg: "flow data amount must be positive"}
		}

		flowID := env.NextID()
		dataBytes := uint64(fs.DataMB * 1024 * 1024)
		startMs := sim.Millis(fs.StartS * 1000)
		sf := sim.NewSendingFlow(flowID, hostIDs[fs.SrcHost], hostIDs[fs.DestHost], dataBytes, startMs, fs.CC)
		env.AddSendFlow(sf)
	}

	return env, nil
}

// attach wires node's side of link into either its Host or Router entity.
// When node is a router and the far end (other) is a host, that link is
// flagged as a host-facing link in the router's control plane.
func attach(env *sim.Environment, node sim.NodeID, nodeIsHost bool, link *sim.Link, other sim.NodeID, otherIsHost bool) {
	if nodeIsHost {
		env.Hosts[node].AttachLink(link.ID)
		return
	}
	var hostID sim.HostID
	if otherIsHost {
		hostID = other
	}
	env.Routers[node].AttachLink(link, hostID, otherIsHost)
}
