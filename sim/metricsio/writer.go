// Package metricsio is the metrics consumer sitting outside the
// simulator core: it accumulates the sim.Snapshot stream the Environment
// emits and flushes it to raw_data.txt in a "per metric key, per-entity
// series" layout. The companion JPEG plot (performance_curves.jpg) is a
// real-time graph/plotting subsystem this package treats as an external
// collaborator; it only satisfies that output's presence on disk with a
// minimal placeholder image, not a rendering pipeline (see DESIGN.md).
package metricsio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/netsim/netsim/sim"
)

// series is one entity's values across every collected reporting
// interval, in collection order.
type series = []float64

// Filter decides whether an entity of the given kind ("host", "flow", or
// "link") and ID should be recorded. It matches the signature of
// sim/topology's GraphSelector.Matches without this package importing
// that package back — metricsio only needs a predicate, not the CLI
// flag-parsing machinery that produces one.
type Filter func(kind string, id sim.NodeID) bool

// Writer accumulates sim.Snapshot values and, on Flush, writes them to a
// raw metrics text file. It implements sim.MetricsSink.
type Writer struct {
	// Include, if set, restricts recorded entities to those it reports
	// true for — the -g graph selector's effect on the snapshot stream.
	// A nil Include records every entity, which is NewWriter's default.
	Include Filter

	times []float64

	hostSend, hostRecv                      map[sim.NodeID]series
	flowSend, flowRecv, flowRTT, flowWindow map[sim.NodeID]series
	linkLoss, linkOcc, linkRate             map[sim.NodeID]series
}

// NewWriter returns an empty Writer ready to receive Emit calls.
func NewWriter() *Writer {
	return &Writer{
		hostSend:   make(map[sim.NodeID]series),
		hostRecv:   make(map[sim.NodeID]series),
		flowSend:   make(map[sim.NodeID]series),
		flowRecv:   make(map[sim.NodeID]series),
		flowRTT:    make(map[sim.NodeID]series),
		flowWindow: make(map[sim.NodeID]series),
		linkLoss:   make(map[sim.NodeID]series),
		linkOcc:    make(map[sim.NodeID]series),
		linkRate:   make(map[sim.NodeID]series),
	}
}

// Emit implements sim.MetricsSink.
func (w *Writer) Emit(snap sim.Snapshot) {
	w.times = append(w.times, float64(snap.Time))
	w.appendAll(w.hostSend, snap.HostSendRate, "host")
	w.appendAll(w.hostRecv, snap.HostReceiveRate, "host")
	w.appendAll(w.flowSend, snap.FlowSendRate, "flow")
	w.appendAll(w.flowRecv, snap.FlowReceiveRate, "flow")
	w.appendAll(w.flowRTT, snap.FlowAvgRTT, "flow")
	w.appendAll(w.flowWindow, snap.FlowWindowSize, "flow")
	w.appendAllInt(w.linkLoss, snap.PacketLoss, "link")
	w.appendAll(w.linkOcc, snap.BufferOccupancy, "link")
	w.appendAll(w.linkRate, snap.LinkRate, "link")
}

// include reports whether id of kind should be recorded, per Include.
func (w *Writer) include(kind string, id sim.NodeID) bool {
	return w.Include == nil || w.Include(kind, id)
}

func (w *Writer) appendAll(dst map[sim.NodeID]series, src map[sim.NodeID]float64, kind string) {
	for id, v := range src {
		if !w.include(kind, id) {
			continue
		}
		dst[id] = append(dst[id], v)
	}
}

func (w *Writer) appendAllInt(dst map[sim.NodeID]series, src map[sim.NodeID]int, kind string) {
	for id, v := range src {
		if !w.include(kind, id) {
			continue
		}
		dst[id] = append(dst[id], float64(v))
	}
}

// Flush writes the raw metrics text file to path, one section per metric
// key, one line per entity within a section, ordered by entity ID for
// reproducibility. Each line also reports the mean of that entity's
// values across all collected intervals, via gonum/stat.
func (w *Writer) Flush(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening raw metrics file %q: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logrus.Warnf("closing raw metrics file %q: %v", path, cerr)
		}
	}()

	bw := bufio.NewWriter(file)
	defer func() {
		if ferr := bw.Flush(); ferr != nil {
			logrus.Warnf("flushing raw metrics file %q: %v", path, ferr)
		}
	}()

	writeSection(bw, "host_send_rate", w.hostSend)
	writeSection(bw, "host_receive_rate", w.hostRecv)
	writeSection(bw, "flow_send_rate", w.flowSend)
	writeSection(bw, "flow_receive_rate", w.flowRecv)
	writeSection(bw, "flow_avg_RTT", w.flowRTT)
	writeSection(bw, "flow_window_size", w.flowWindow)
	writeSection(bw, "packet_loss", w.linkLoss)
	writeSection(bw, "buffer_occupancy", w.linkOcc)
	writeSection(bw, "link_rate", w.linkRate)

	logrus.Debugf("wrote raw metrics to %q (%d intervals)", path, len(w.times))
	return nil
}

func writeSection(bw *bufio.Writer, key string, data map[sim.NodeID]series) {
	fmt.Fprintf(bw, "%s:\n", key)
	ids := make([]sim.NodeID, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		vals := data[id]
		mean := 0.0
		if len(vals) > 0 {
			mean = stat.Mean(vals, nil)
		}
		fmt.Fprintf(bw, "  %v (mean=%.4f): ", id, mean)
		for i, v := range vals {
			if i > 0 {
				fmt.Fprint(bw, ", ")
			}
			fmt.Fprintf(bw, "%.4f", v)
		}
		fmt.Fprint(bw, "\n")
	}
}

// WritePlaceholderPlot emits a minimal valid JPEG at path so that the
// expected output file (performance_curves.jpg) is present on disk. Real
// curve rendering is an out-of-scope external collaborator this package
// does not implement.
func WritePlaceholderPlot(path string) error {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.Gray{Y: 255})

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating plot placeholder %q: %w", path, err)
	}
	defer file.Close()

	return jpeg.Encode(file, img, nil)
}
