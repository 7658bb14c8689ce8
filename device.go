package netlab

// device.go holds the run-time representation of devices.  The topoDev
// interface specifies the functionality every device type provides; the
// per-type structs are built from the topology descriptions at
// simulator startup by createDev and discarded with the result.
//
// Device processing is expressed as a pure function from (ingress
// interface, packet, clock) to a devResult: the events to schedule
// next, the trace hops describing what the device decided, and whether
// the packet was delivered here.  The only state a device call may
// mutate is the MAC table owned by the switch being dispatched.

import (
	"fmt"
)

// a delivery is a pending presentation of a packet at a device interface
type delivery struct {
	pckt     Packet
	nodeID   string
	intrfcID string
}

// a devResult carries everything a device call produced
type devResult struct {
	events    []delivery
	hops      []TraceHop
	delivered bool
}

// the topoDev interface specifies the functionality different device types provide
type topoDev interface {
	devName() string // every device has a display label
	devID() string   // every device has a unique string id
	devType() string // every device is one of the type tags

	// process presents a packet at an ingress interface and returns the
	// device's decisions
	process(ingressID string, pckt Packet, clock int) devResult
}

// createDev is a constructor-by-tag, building the run-time device for a
// node description
func createDev(topo *Topology, node *NodeDesc) (topoDev, error) {
	switch {
	case isHostLike(node.Type):
		return createEndptDev(topo, node), nil
	case node.Type == CloudType:
		return createCloudDev(topo, node), nil
	case node.Type == SwitchType:
		return createSwitchDev(topo, node), nil
	case node.Type == RouterType:
		return createRouterDev(topo, node), nil
	case node.Type == FirewallType:
		return createFirewallDev(topo, node), nil
	}
	return nil, fmt.Errorf("unknown device type %s on node %s", node.Type, node.ID)
}

// hop is a convenience builder for the trace hops a device emits
func hop(clock int, node *NodeDesc, intrfcID string, action TraceAction, reason string, pckt Packet) TraceHop {
	return TraceHop{Time: clock, NodeID: node.ID, NodeLabel: node.Label, IntrfcID: intrfcID,
		Action: action, Reason: reason, Pckt: pckt}
}

// An endptDev is the run-time representation of a host-like device
// (host, phone, server, laptop).  Endpoints originate packets and
// terminate delivery; they never forward.
type endptDev struct {
	endptNode *NodeDesc
	endptTopo *Topology
}

// createEndptDev is a constructor
func createEndptDev(topo *Topology, node *NodeDesc) *endptDev {
	endpt := new(endptDev)
	endpt.endptNode = node
	endpt.endptTopo = topo
	return endpt
}

// devName returns the endpoint label, as part of the topoDev interface
func (endpt *endptDev) devName() string {
	return endpt.endptNode.Label
}

// devID returns the endpoint id, as part of the topoDev interface
func (endpt *endptDev) devID() string {
	return endpt.endptNode.ID
}

// devType returns the endpoint's device type, as part of the topoDev interface
func (endpt *endptDev) devType() string {
	return endpt.endptNode.Type
}

// send synthesizes the initial packet for a simulation.  The packet
// leaves the endpoint's first interface with that interface's hardware
// and network addresses as source, and is presented to the peer on the
// attached link.  With no link attached the attempt is recorded as a
// drop and nothing is scheduled.
func (endpt *endptDev) send(dstMAC, dstIP string, spec PacketSpec, pcktID string, clock int) devResult {
	res := devResult{}
	intrfc := endpt.endptNode.firstIntrfc()
	if intrfc == nil {
		res.hops = append(res.hops, hop(clock, endpt.endptNode, "", DropAction, "No interface configured", Packet{}))
		return res
	}

	ttl := spec.TTL
	if ttl <= 0 {
		ttl = dfltTTL
	}
	proto := spec.Protocol
	if proto == "" {
		proto = ICMPProto
	}
	pckt := Packet{
		ID:       pcktID,
		SrcMAC:   intrfc.MAC,
		DstMAC:   dstMAC,
		SrcIP:    ipFromCIDR(intrfc.IPAddr),
		DstIP:    dstIP,
		Protocol: proto,
		SrcPort:  spec.SrcPort,
		DstPort:  spec.DstPort,
		TTL:      ttl,
		Payload:  spec.Payload,
	}

	peerNode, peerIntrfc, connected := findPeer(endpt.endptTopo, endpt.endptNode.ID, intrfc.ID)
	if !connected {
		res.hops = append(res.hops, hop(clock, endpt.endptNode, intrfc.ID, DropAction, "No link connected", pckt))
		return res
	}

	res.hops = append(res.hops, hop(clock, endpt.endptNode, intrfc.ID, ForwardAction,
		fmt.Sprintf("Sending %s to %s", proto, dstIP), pckt))
	res.events = append(res.events, delivery{pckt: pckt, nodeID: peerNode, intrfcID: peerIntrfc})
	return res
}

// process terminates or refuses a packet arriving at the endpoint.  The
// packet is for us when it names the ingress interface's hardware
// address, the broadcast address, or the interface's network address.
func (endpt *endptDev) process(ingressID string, pckt Packet, clock int) devResult {
	res := devResult{}
	intrfc := endpt.endptNode.intrfcByID(ingressID)
	if intrfc == nil {
		res.hops = append(res.hops, hop(clock, endpt.endptNode, ingressID, DropAction, "Unknown ingress interface", pckt))
		return res
	}

	forUs := macEqual(pckt.DstMAC, intrfc.MAC) || isBroadcastMAC(pckt.DstMAC) ||
		(pckt.DstIP != "" && pckt.DstIP == ipFromCIDR(intrfc.IPAddr))
	if forUs {
		res.hops = append(res.hops, hop(clock, endpt.endptNode, ingressID, DeliverAction, "Packet delivered", pckt))
		res.delivered = true
		return res
	}

	res.hops = append(res.hops, hop(clock, endpt.endptNode, ingressID, DropAction, "Packet not addressed to this host", pckt))
	return res
}

// A cloudDev stands in for everything beyond the lab's edge.  It
// accepts any packet arriving on its interface and never originates.
type cloudDev struct {
	cloudNode *NodeDesc
	cloudTopo *Topology
}

// createCloudDev is a constructor
func createCloudDev(topo *Topology, node *NodeDesc) *cloudDev {
	cloud := new(cloudDev)
	cloud.cloudNode = node
	cloud.cloudTopo = topo
	return cloud
}

// devName returns the cloud label, as part of the topoDev interface
func (cloud *cloudDev) devName() string {
	return cloud.cloudNode.Label
}

// devID returns the cloud id, as part of the topoDev interface
func (cloud *cloudDev) devID() string {
	return cloud.cloudNode.ID
}

// devType returns the cloud's device type, as part of the topoDev interface
func (cloud *cloudDev) devType() string {
	return CloudType
}

// process accepts whatever arrives
func (cloud *cloudDev) process(ingressID string, pckt Packet, clock int) devResult {
	res := devResult{}
	res.hops = append(res.hops, hop(clock, cloud.cloudNode, ingressID, DeliverAction, "Accepted by cloud", pckt))
	res.delivered = true
	return res
}
