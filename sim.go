package netlab

// sim.go holds the simulation driver: it builds run-time devices from
// the topology, seeds the first packet at the source endpoint, and
// consumes deliveries off the event queue until the packet is delivered,
// dropped, looped, or the hop cap fires.
//
// Deliveries ride the evtm event manager.  Every enqueue stamps the
// event with the next value of a strictly increasing sequence, so the
// manager dispatches in enqueue order and the queue behaves as a FIFO.
// The logical clock ticks once per dequeued event and is what trace
// hops carry as their time.

import (
	"fmt"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// dfltMaxHops bounds the number of dequeues a simulation may perform
const dfltMaxHops = 100

// Options configures one simulation call
type Options struct {
	// MaxHops is the hard ceiling on loop iterations
	MaxHops int

	// StepMode is reserved for UI pacing and does not affect semantics
	StepMode bool

	// TraceLevel selects MinimalTrace or DetailedTrace
	TraceLevel string
}

// A Result reports the outcome of one simulation.  Success is true only
// on delivery.  Blocked marks a packet stopped by an access-control
// deny; Loop marks loop detection or the hop cap firing.  Reason is a
// short human-readable string suitable for display as-is.
type Result struct {
	Success   bool       `json:"success" yaml:"success"`
	Delivered bool       `json:"delivered" yaml:"delivered"`
	Blocked   bool       `json:"blocked" yaml:"blocked"`
	Loop      bool       `json:"loop" yaml:"loop"`
	Trace     []TraceHop `json:"trace" yaml:"trace"`
	Reason    string     `json:"reason" yaml:"reason"`
}

// A Simulator runs packets through one topology.  Each Simulate call
// builds its own devices, MAC tables, and event queue, so independent
// Simulator instances may run concurrently; a single instance runs one
// call at a time.
type Simulator struct {
	topo     *Topology
	opts     Options
	analyzer *GraphAnalyzer
	minter   *PcktIDMinter

	// per-call state, rebuilt by every Simulate
	devByID   map[string]topoDev
	recorder  *TraceRecorder
	evtMgr    *evtm.EventManager
	clock     int
	seq       int
	hops      int
	visited   map[string]bool
	delivered bool
	halted    bool
	loop      bool
	reason    string
}

// CreateSimulator is a constructor.  The packet-id minter's stream is
// named after the topology.  A fresh simulator over the same topology
// replays the same trace except for packet ids, which differ between
// simulator instances.
func CreateSimulator(topo *Topology, opts *Options) *Simulator {
	sim := new(Simulator)
	sim.topo = topo
	if opts != nil {
		sim.opts = *opts
	}
	if sim.opts.MaxHops <= 0 {
		sim.opts.MaxHops = dfltMaxHops
	}
	if sim.opts.TraceLevel == "" {
		sim.opts.TraceLevel = DetailedTrace
	}
	sim.analyzer = CreateGraphAnalyzer(topo)
	sim.minter = CreatePcktIDMinter(topo.Name + "-pckt")
	return sim
}

// Analyzer exposes the graph analyzer built over the topology
func (sim *Simulator) Analyzer() *GraphAnalyzer {
	return sim.analyzer
}

// Simulate plays one packet specification through the topology and
// returns the outcome with its hop-by-hop trace
func (sim *Simulator) Simulate(spec PacketSpec) Result {
	sim.devByID = make(map[string]topoDev)
	sim.recorder = CreateTraceRecorder(sim.opts.TraceLevel)
	sim.evtMgr = evtm.New()
	sim.clock = 0
	sim.seq = 0
	sim.hops = 0
	sim.visited = make(map[string]bool)
	sim.delivered = false
	sim.halted = false
	sim.loop = false
	sim.reason = ""

	srcNode := sim.topo.NodeByID(spec.SrcNode)
	if srcNode == nil {
		return failure(fmt.Sprintf("Source node %s not found in topology", spec.SrcNode))
	}
	dstNode := sim.topo.NodeByID(spec.DstNode)
	if dstNode == nil {
		return failure(fmt.Sprintf("Destination node %s not found in topology", spec.DstNode))
	}
	if !isHostLike(srcNode.Type) {
		return failure(fmt.Sprintf("Source device %s cannot originate traffic", srcNode.Label))
	}

	// fail fast when no sequence of links joins the endpoints
	if !sim.analyzer.IsReachable(spec.SrcNode, spec.DstNode) {
		return failure(fmt.Sprintf("No path exists between %s and %s", srcNode.Label, dstNode.Label))
	}

	for idx := range sim.topo.Nodes {
		node := &sim.topo.Nodes[idx]
		dev, err := createDev(sim.topo, node)
		if err != nil {
			return failure(err.Error())
		}
		sim.devByID[node.ID] = dev
	}

	// the destination's first interface supplies the target addresses,
	// falling back to broadcast and to the caller's override
	dstMAC := BroadcastMAC
	dstIP := spec.DstIP
	if intrfc := dstNode.firstIntrfc(); intrfc != nil {
		if intrfc.MAC != "" {
			dstMAC = intrfc.MAC
		}
		if intrfc.IPAddr != "" {
			dstIP = ipFromCIDR(intrfc.IPAddr)
		}
	}

	srcDev := sim.devByID[spec.SrcNode].(*endptDev)
	seed := srcDev.send(dstMAC, dstIP, spec, sim.minter.MintID(), sim.clock)
	sim.recorder.AddHops(seed.hops)
	for _, ev := range seed.events {
		sim.enqueue(ev)
	}

	// every enqueue stamps one more virtual second, so the number of
	// dequeues the hop cap permits bounds the latest stamp any
	// dispatchable event can carry
	maxFanout := 1
	for _, node := range sim.topo.Nodes {
		if len(node.Intrfcs) > maxFanout {
			maxFanout = len(node.Intrfcs)
		}
	}
	sim.evtMgr.Run(float64((sim.opts.MaxHops+2)*maxFanout + 2))

	return sim.buildResult()
}

// enqueue schedules a delivery at the next sequence stamp, preserving
// FIFO dispatch order
func (sim *Simulator) enqueue(dlv delivery) {
	sim.seq += 1
	sim.evtMgr.Schedule(sim, dlv, deliverPckt, vrtime.SecondsToTime(float64(sim.seq)))
}

// deliverPckt is the event handler dispatched for every queued delivery.
// It ticks the clock, applies loop detection and the hop cap, and runs
// the owning device's behavior.
func deliverPckt(evtMgr *evtm.EventManager, context any, data any) any {
	sim := context.(*Simulator)
	dlv := data.(delivery)

	// a finished simulation lets any residual events drain undispatched
	if sim.halted {
		return nil
	}

	if sim.hops >= sim.opts.MaxHops {
		sim.halted = true
		sim.loop = true
		sim.reason = "Max hops exceeded"
		return nil
	}

	sim.clock += 1

	key := dlv.nodeID + "-" + dlv.intrfcID + "-" + dlv.pckt.ID
	if sim.visited[key] {
		sim.halted = true
		sim.loop = true
		sim.reason = fmt.Sprintf("Loop detected at %s", dlv.nodeID)
		return nil
	}
	sim.visited[key] = true

	dev, present := sim.devByID[dlv.nodeID]
	if !present {
		return nil
	}

	res := dev.process(dlv.intrfcID, dlv.pckt, sim.clock)
	sim.recorder.AddHops(res.hops)
	if res.delivered {
		sim.delivered = true
		sim.halted = true
		return nil
	}
	for _, ev := range res.events {
		sim.enqueue(ev)
	}
	sim.hops += 1
	return nil
}

// buildResult classifies the terminated simulation.  A drained queue
// without delivery is judged by the final trace hop: an access-control
// deny marks the packet blocked, a drop names its reason, anything else
// reports plain non-delivery.
func (sim *Simulator) buildResult() Result {
	result := Result{Trace: sim.recorder.Hops}

	if sim.delivered {
		result.Success = true
		result.Delivered = true
		result.Reason = "Packet delivered"
		if last := sim.recorder.LastHop(); last != nil {
			result.Reason = last.Reason
		}
		return result
	}

	if sim.loop {
		result.Loop = true
		result.Reason = sim.reason
		return result
	}

	last := sim.recorder.LastHop()
	if last != nil && (last.Action == ACLDenyAction || last.Action == DropAction) {
		result.Blocked = last.Action == ACLDenyAction
		result.Reason = last.Reason
		return result
	}
	result.Reason = "Packet did not reach destination"
	return result
}

// macTableOf returns the MAC table owned by the named switch during the
// most recent Simulate call, nil when the node is not a switch
func (sim *Simulator) macTableOf(nodeID string) *MACTable {
	swtch, ok := sim.devByID[nodeID].(*switchDev)
	if !ok {
		return nil
	}
	return swtch.macTable()
}

// failure builds a Result for the errors detected before any event is
// dispatched: unknown endpoints, a source that cannot originate, or
// disconnected endpoints
func failure(reason string) Result {
	return Result{Trace: make([]TraceHop, 0), Reason: reason}
}

// Simulate is the package-level entry point: one topology, one packet
// specification, one result
func Simulate(topo *Topology, spec PacketSpec, opts *Options) Result {
	return CreateSimulator(topo, opts).Simulate(spec)
}
