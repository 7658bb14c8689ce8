package netlab

// switch.go holds the run-time representation of a layer-2 switch:
// ingress VLAN resolution, hardware-address learning, and the
// table-or-flood egress decision.

import (
	"fmt"
	"golang.org/x/exp/slices"
)

// A switchDev is the run-time representation of a switch.  It is the
// only device type that carries mutable state across dispatches: the
// MAC table allocated for it at simulator startup.
type switchDev struct {
	switchNode   *NodeDesc
	switchTopo   *Topology
	switchMACTbl *MACTable
}

// createSwitchDev is a constructor.  The switch owns its freshly
// allocated MAC table; switches never share tables.
func createSwitchDev(topo *Topology, node *NodeDesc) *switchDev {
	swtch := new(switchDev)
	swtch.switchNode = node
	swtch.switchTopo = topo
	swtch.switchMACTbl = CreateMACTable()
	return swtch
}

// devName returns the switch label, as part of the topoDev interface
func (swtch *switchDev) devName() string {
	return swtch.switchNode.Label
}

// devID returns the switch id, as part of the topoDev interface
func (swtch *switchDev) devID() string {
	return swtch.switchNode.ID
}

// devType returns the switch's device type, as part of the topoDev interface
func (swtch *switchDev) devType() string {
	return SwitchType
}

// macTable exposes the switch's table for post-run inspection
func (swtch *switchDev) macTable() *MACTable {
	return swtch.switchMACTbl
}

// ingressVLAN resolves the packet's effective VLAN at an ingress port.
// An access port imposes its configured VLAN; a trunk port honors the
// packet's own tag, defaulting to 1 when untagged; any other mode
// resolves to VLAN 1.  The second return is false when a trunk's
// allowed-VLAN set excludes the resolved VLAN.
func ingressVLAN(intrfc *IntrfcDesc, pckt Packet) (int, bool) {
	switch intrfc.Mode {
	case AccessMode:
		vlan := intrfc.VLAN
		if vlan == 0 {
			vlan = 1
		}
		return vlan, true
	case TrunkMode:
		vlan := pckt.VLAN
		if vlan == 0 {
			vlan = 1
		}
		if len(intrfc.AllowedVLANs) > 0 && !slices.Contains(intrfc.AllowedVLANs, vlan) {
			return vlan, false
		}
		return vlan, true
	}
	return 1, true
}

// egressAdmissible reports whether the interface may transmit frames of
// the given VLAN: a trunk port with no restriction or with the VLAN
// explicitly allowed, or any other port (access or unset mode) whose
// configured VLAN, defaulting to 1, is that VLAN
func egressAdmissible(intrfc *IntrfcDesc, vlan int) bool {
	switch intrfc.Mode {
	case TrunkMode:
		return len(intrfc.AllowedVLANs) == 0 || slices.Contains(intrfc.AllowedVLANs, vlan)
	default:
		portVLAN := intrfc.VLAN
		if portVLAN == 0 {
			portVLAN = 1
		}
		return portVLAN == vlan
	}
}

// egressTag applies the port's tagging rule to a departing copy of the
// packet: a trunk preserves the tag, anything else strips it
func egressTag(intrfc *IntrfcDesc, pckt Packet) Packet {
	if intrfc.Mode != TrunkMode {
		pckt.VLAN = 0
	}
	return pckt
}

// process runs one frame through the switch.  The effective VLAN is
// resolved at ingress and rewritten onto the packet, the source address
// is learned when learning is enabled, and the frame leaves by table
// lookup or by flooding every admissible port other than the ingress.
// Switches never claim a packet as their own.
func (swtch *switchDev) process(ingressID string, pckt Packet, clock int) devResult {
	res := devResult{}
	node := swtch.switchNode

	ingress := node.intrfcByID(ingressID)
	if ingress == nil {
		res.hops = append(res.hops, hop(clock, node, ingressID, DropAction, "Unknown ingress interface", pckt))
		return res
	}

	vlan, admitted := ingressVLAN(ingress, pckt)
	if !admitted {
		res.hops = append(res.hops, hop(clock, node, ingressID, DropAction,
			fmt.Sprintf("VLAN %d not allowed on trunk", vlan), pckt))
		return res
	}
	pckt.VLAN = vlan

	if node.MACLearning && pckt.SrcMAC != "" {
		if swtch.switchMACTbl.Learn(pckt.SrcMAC, vlan, ingressID, clock) {
			res.hops = append(res.hops, hop(clock, node, ingressID, LearnAction,
				fmt.Sprintf("Learned %s on %s (VLAN %d)", pckt.SrcMAC, ingressID, vlan),
				Packet{SrcMAC: pckt.SrcMAC}))
		}
	}

	res.hops = append(res.hops, hop(clock, node, ingressID, ReceiveAction,
		fmt.Sprintf("Frame received on VLAN %d", vlan), pckt))

	if isBroadcastMAC(pckt.DstMAC) || isMulticastMAC(pckt.DstMAC) {
		swtch.flood(&res, ingressID, pckt, vlan, clock, "Broadcast frame, flooding")
		return res
	}

	entry := swtch.switchMACTbl.Lookup(pckt.DstMAC, vlan)
	if entry != nil && entry.IntrfcID != ingressID {
		swtch.unicast(&res, entry.IntrfcID, pckt, vlan, clock)
		return res
	}

	swtch.flood(&res, ingressID, pckt, vlan, clock,
		fmt.Sprintf("Unknown destination %s, flooding", pckt.DstMAC))
	return res
}

// unicast emits one copy of the frame out a known egress port
func (swtch *switchDev) unicast(res *devResult, egressID string, pckt Packet, vlan int, clock int) {
	node := swtch.switchNode
	egress := node.intrfcByID(egressID)
	if egress == nil || !egressAdmissible(egress, vlan) {
		return
	}
	peerNode, peerIntrfc, connected := findPeer(swtch.switchTopo, node.ID, egressID)
	if !connected {
		return
	}
	out := egressTag(egress, pckt)
	res.hops = append(res.hops, hop(clock, node, egressID, ForwardAction,
		fmt.Sprintf("Forwarding to %s via %s", pckt.DstMAC, egressID), out))
	res.events = append(res.events, delivery{pckt: out, nodeID: peerNode, intrfcID: peerIntrfc})
}

// flood emits a copy of the frame on every admissible connected port
// other than the ingress, covered by a single flood trace
func (swtch *switchDev) flood(res *devResult, ingressID string, pckt Packet, vlan int, clock int, reason string) {
	node := swtch.switchNode
	res.hops = append(res.hops, hop(clock, node, ingressID, FloodAction, reason, pckt))
	for idx := range node.Intrfcs {
		egress := &node.Intrfcs[idx]
		if egress.ID == ingressID || !egressAdmissible(egress, vlan) {
			continue
		}
		peerNode, peerIntrfc, connected := findPeer(swtch.switchTopo, node.ID, egress.ID)
		if !connected {
			continue
		}
		out := egressTag(egress, pckt)
		res.events = append(res.events, delivery{pckt: out, nodeID: peerNode, intrfcID: peerIntrfc})
	}
}
