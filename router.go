package netlab

// router.go holds the run-time representation of a layer-3 router:
// TTL accounting, directly connected subnet selection, and
// longest-prefix static routing.

import (
	"fmt"
)

// A routerDev is the run-time representation of a router.  Routing
// state is entirely static configuration; the router itself carries no
// mutable state between dispatches.
type routerDev struct {
	routerNode *NodeDesc
	routerTopo *Topology
}

// createRouterDev is a constructor
func createRouterDev(topo *Topology, node *NodeDesc) *routerDev {
	router := new(routerDev)
	router.routerNode = node
	router.routerTopo = topo
	return router
}

// devName returns the router label, as part of the topoDev interface
func (router *routerDev) devName() string {
	return router.routerNode.Label
}

// devID returns the router id, as part of the topoDev interface
func (router *routerDev) devID() string {
	return router.routerNode.ID
}

// devType returns the router's device type, as part of the topoDev interface
func (router *routerDev) devType() string {
	return RouterType
}

// process runs one packet through the router.  A packet addressed to
// one of the router's own interfaces is consumed.  Otherwise the TTL is
// spent, a directly connected subnet is preferred in configured
// interface order, and failing that the static routes are consulted by
// longest matching prefix.  Only the source hardware address is
// rewritten on egress; downstream switch learning carries delivery from
// there.
func (router *routerDev) process(ingressID string, pckt Packet, clock int) devResult {
	res := devResult{}
	node := router.routerNode

	// the only case a router consumes a packet
	for _, intrfc := range node.Intrfcs {
		if pckt.DstIP != "" && pckt.DstIP == ipFromCIDR(intrfc.IPAddr) {
			res.hops = append(res.hops, hop(clock, node, ingressID, DeliverAction, "Addressed to router interface", pckt))
			res.delivered = true
			return res
		}
	}

	if pckt.TTL <= 1 {
		res.hops = append(res.hops, hop(clock, node, ingressID, DropAction, "TTL expired", pckt))
		return res
	}
	pckt.TTL -= 1

	res.hops = append(res.hops, hop(clock, node, ingressID, ReceiveAction,
		fmt.Sprintf("Packet received, TTL now %d", pckt.TTL), pckt))

	if pckt.DstIP == "" {
		res.hops = append(res.hops, hop(clock, node, ingressID, DropAction, "No destination IP for routing", pckt))
		return res
	}

	// directly connected network, first match in configured interface order
	for idx := range node.Intrfcs {
		egress := &node.Intrfcs[idx]
		if egress.ID == ingressID || egress.IPAddr == "" {
			continue
		}
		if !sameSubnet(pckt.DstIP, egress.IPAddr) {
			continue
		}
		router.emit(&res, egress, pckt, clock,
			fmt.Sprintf("Routing to directly connected network via %s", egress.ID))
		return res
	}

	route, matched := longestPrefixRoute(node.Routes, pckt.DstIP)
	if matched {
		egress := node.intrfcByID(route.Intrfc)
		if egress == nil {
			// a route naming a nonexistent interface is ignored, not fatal
			return res
		}
		router.emit(&res, egress, pckt, clock,
			fmt.Sprintf("Routing via %s to next hop %s", route.Prefix, route.NextHop))
		return res
	}

	res.hops = append(res.hops, hop(clock, node, ingressID, DropAction,
		fmt.Sprintf("No route to %s", pckt.DstIP), pckt))
	return res
}

// emit rewrites the source hardware address to the egress interface and
// schedules the packet at the link peer.  With no peer attached nothing
// is emitted and the simulation ends without a delivery.
func (router *routerDev) emit(res *devResult, egress *IntrfcDesc, pckt Packet, clock int, reason string) {
	peerNode, peerIntrfc, connected := findPeer(router.routerTopo, router.routerNode.ID, egress.ID)
	if !connected {
		return
	}
	pckt.SrcMAC = egress.MAC
	res.hops = append(res.hops, hop(clock, router.routerNode, egress.ID, RouteAction, reason, pckt))
	res.events = append(res.events, delivery{pckt: pckt, nodeID: peerNode, intrfcID: peerIntrfc})
}
