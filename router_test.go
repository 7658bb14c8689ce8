package netlab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticRouter builds R -- R2 chained subnets where R reaches B's
// subnet only through a static route toward R2
func staticRouter() *Topology {
	topo := CreateTopology("static-routed")
	topo.AddNode(testHost("A", "02:AA:00:00:00:01", "10.0.0.10/24"))
	topo.AddNode(testHost("B", "02:AA:00:00:00:02", "10.0.2.10/24"))
	topo.AddNode(NodeDesc{
		ID:    "R",
		Label: "R",
		Type:  RouterType,
		Intrfcs: []IntrfcDesc{
			{ID: "eth0", MAC: "02:CC:00:00:00:01", IPAddr: "10.0.0.1/24"},
			{ID: "eth1", MAC: "02:CC:00:00:00:02", IPAddr: "10.0.1.1/24"},
		},
		Routes: []RouteDesc{
			{Prefix: "0.0.0.0/0", NextHop: "10.0.1.2", Intrfc: "eth1"},
			{Prefix: "10.0.2.0/24", NextHop: "10.0.1.2", Intrfc: "eth1"},
		},
	})
	topo.AddNode(NodeDesc{
		ID:    "R2",
		Label: "R2",
		Type:  RouterType,
		Intrfcs: []IntrfcDesc{
			{ID: "eth0", MAC: "02:CC:00:00:01:01", IPAddr: "10.0.1.2/24"},
			{ID: "eth1", MAC: "02:CC:00:00:01:02", IPAddr: "10.0.2.1/24"},
		},
	})
	topo.AddLink("A", "eth0", "R", "eth0")
	topo.AddLink("R", "eth1", "R2", "eth0")
	topo.AddLink("R2", "eth1", "B", "eth0")
	return topo
}

func TestRouterConsumesOwnAddress(t *testing.T) {
	topo := routedPair()
	router := createRouterDev(topo, topo.NodeByID("R"))

	pckt := Packet{ID: "pk", DstIP: "10.0.1.1", TTL: 64}
	res := router.process("eth0", pckt, 1)

	assert.True(t, res.delivered)
	require.Len(t, res.hops, 1)
	assert.Equal(t, DeliverAction, res.hops[0].Action)
}

func TestRouterTTLExpiry(t *testing.T) {
	topo := routedPair()
	router := createRouterDev(topo, topo.NodeByID("R"))

	for _, ttl := range []int{0, 1} {
		pckt := Packet{ID: "pk", DstIP: "10.0.1.10", TTL: ttl}
		res := router.process("eth0", pckt, 1)
		assert.False(t, res.delivered)
		require.Len(t, res.hops, 1)
		assert.Equal(t, DropAction, res.hops[0].Action)
		assert.Equal(t, "TTL expired", res.hops[0].Reason)
	}
}

func TestRouterTTLDecrement(t *testing.T) {
	topo := routedPair()
	router := createRouterDev(topo, topo.NodeByID("R"))

	pckt := Packet{ID: "pk", DstIP: "10.0.1.10", TTL: 64}
	res := router.process("eth0", pckt, 1)

	require.Len(t, res.events, 1)
	assert.Equal(t, 63, res.events[0].pckt.TTL)
}

func TestRouterMissingDstIP(t *testing.T) {
	topo := routedPair()
	router := createRouterDev(topo, topo.NodeByID("R"))

	res := router.process("eth0", Packet{ID: "pk", TTL: 64}, 1)

	assert.Empty(t, res.events)
	last := res.hops[len(res.hops)-1]
	assert.Equal(t, DropAction, last.Action)
	assert.Equal(t, "No destination IP for routing", last.Reason)
}

func TestRouterDirectlyConnectedWins(t *testing.T) {
	// a static default route exists, but eth1's own subnet matches first
	topo := staticRouter()
	router := createRouterDev(topo, topo.NodeByID("R"))

	pckt := Packet{ID: "pk", DstIP: "10.0.1.2", TTL: 64}
	res := router.process("eth0", pckt, 1)

	require.Len(t, res.events, 1)
	routeHop := res.hops[len(res.hops)-1]
	assert.Equal(t, RouteAction, routeHop.Action)
	assert.Contains(t, routeHop.Reason, "directly connected")
}

func TestRouterStaticRouteLongestPrefix(t *testing.T) {
	topo := staticRouter()
	router := createRouterDev(topo, topo.NodeByID("R"))

	pckt := Packet{ID: "pk", DstIP: "10.0.2.10", TTL: 64}
	res := router.process("eth0", pckt, 1)

	require.Len(t, res.events, 1)
	routeHop := res.hops[len(res.hops)-1]
	assert.Equal(t, RouteAction, routeHop.Action)
	assert.Contains(t, routeHop.Reason, "10.0.2.0/24")
	assert.Contains(t, routeHop.Reason, "10.0.1.2")

	// the packet leaves with the egress interface's hardware address
	assert.Equal(t, "02:CC:00:00:00:02", res.events[0].pckt.SrcMAC)
}

func TestRouterNoRoute(t *testing.T) {
	topo := routedPair()
	router := createRouterDev(topo, topo.NodeByID("R"))

	pckt := Packet{ID: "pk", DstIP: "203.0.113.9", TTL: 64}
	res := router.process("eth0", pckt, 1)

	assert.Empty(t, res.events)
	last := res.hops[len(res.hops)-1]
	assert.Equal(t, DropAction, last.Action)
	assert.Equal(t, "No route to 203.0.113.9", last.Reason)
}

func TestRouterRouteToMissingIntrfcIgnored(t *testing.T) {
	topo := routedPair()
	node := topo.NodeByID("R")
	node.Routes = []RouteDesc{
		{Prefix: "203.0.113.0/24", NextHop: "10.0.1.2", Intrfc: "eth9"},
	}
	router := createRouterDev(topo, node)

	pckt := Packet{ID: "pk", DstIP: "203.0.113.9", TTL: 64}
	res := router.process("eth0", pckt, 1)

	// the route names an interface the router does not have; nothing is
	// emitted and nothing else is traced
	assert.Empty(t, res.events)
	last := res.hops[len(res.hops)-1]
	assert.Equal(t, ReceiveAction, last.Action)
}

func TestTwoRouterChainDelivers(t *testing.T) {
	topo := staticRouter()
	result := Simulate(topo, ping("A", "B"), nil)

	require.True(t, result.Delivered)

	// both routers appear in the trace, the first by static route, the
	// second by its directly connected subnet
	var reasons []string
	for _, hop := range result.Trace {
		if hop.Action == RouteAction {
			reasons = append(reasons, hop.Reason)
		}
	}
	require.Len(t, reasons, 2)
	assert.Contains(t, reasons[0], "10.0.2.0/24")
	assert.Contains(t, reasons[1], "directly connected")
}
