package netlab

// helpers_test.go holds the small topology builders the test files share.

// testHost builds a host-like node with one interface
func testHost(id, mac, ipaddr string) NodeDesc {
	return NodeDesc{
		ID:    id,
		Label: id,
		Type:  HostType,
		Intrfcs: []IntrfcDesc{
			{ID: "eth0", MAC: mac, IPAddr: ipaddr},
		},
	}
}

// accessPort builds a switch access port
func accessPort(id, mac string, vlan int) IntrfcDesc {
	return IntrfcDesc{ID: id, MAC: mac, Mode: AccessMode, VLAN: vlan}
}

// trunkPort builds a switch trunk port; an empty allowed list means no
// restriction
func trunkPort(id, mac string, allowed ...int) IntrfcDesc {
	return IntrfcDesc{ID: id, MAC: mac, Mode: TrunkMode, AllowedVLANs: allowed}
}

// testSwitch builds a switch node from its ports
func testSwitch(id string, learning bool, ports ...IntrfcDesc) NodeDesc {
	return NodeDesc{
		ID:          id,
		Label:       id,
		Type:        SwitchType,
		Intrfcs:     ports,
		MACLearning: learning,
		VLANdb:      []int{1},
	}
}

// switchedPair builds the two-hosts-behind-one-switch topology the
// layer-2 scenarios start from: A on port p1, B on port p2
func switchedPair(vlanA, vlanB int, learning bool) *Topology {
	topo := CreateTopology("switched-pair")
	topo.AddNode(testHost("A", "02:AA:00:00:00:01", "192.168.1.10/24"))
	topo.AddNode(testHost("B", "02:AA:00:00:00:02", "192.168.1.11/24"))
	topo.AddNode(testSwitch("SW", learning,
		accessPort("p1", "02:5C:00:00:00:01", vlanA),
		accessPort("p2", "02:5C:00:00:00:02", vlanB)))
	topo.AddLink("A", "eth0", "SW", "p1")
	topo.AddLink("B", "eth0", "SW", "p2")
	return topo
}

// routedPair builds the two-subnets-behind-one-router topology the
// layer-3 scenarios start from
func routedPair() *Topology {
	topo := CreateTopology("routed-pair")
	topo.AddNode(testHost("A", "02:AA:00:00:00:01", "10.0.0.10/24"))
	topo.AddNode(testHost("B", "02:AA:00:00:00:02", "10.0.1.10/24"))
	topo.AddNode(NodeDesc{
		ID:    "R",
		Label: "R",
		Type:  RouterType,
		Intrfcs: []IntrfcDesc{
			{ID: "eth0", MAC: "02:CC:00:00:00:01", IPAddr: "10.0.0.1/24"},
			{ID: "eth1", MAC: "02:CC:00:00:00:02", IPAddr: "10.0.1.1/24"},
		},
	})
	topo.AddLink("A", "eth0", "R", "eth0")
	topo.AddLink("R", "eth1", "B", "eth0")
	return topo
}

// firewalledPair builds Host A - Firewall F - Host B with the given
// rules and default policy
func firewalledPair(rules []ACLRuleDesc, dfltPolicy string) *Topology {
	topo := CreateTopology("firewalled-pair")
	topo.AddNode(testHost("A", "02:AA:00:00:00:01", "172.16.0.10/24"))
	topo.AddNode(testHost("B", "02:AA:00:00:00:02", "172.16.1.10/24"))
	topo.AddNode(NodeDesc{
		ID:    "F",
		Label: "F",
		Type:  FirewallType,
		Intrfcs: []IntrfcDesc{
			{ID: "if0", MAC: "02:DD:00:00:00:01", IPAddr: "172.16.0.1/24"},
			{ID: "if1", MAC: "02:DD:00:00:00:02", IPAddr: "172.16.1.1/24"},
		},
		Rules:         rules,
		DefaultPolicy: dfltPolicy,
	})
	topo.AddLink("A", "eth0", "F", "if0")
	topo.AddLink("F", "if1", "B", "eth0")
	return topo
}

// actionsOf projects a trace to its action sequence
func actionsOf(trace []TraceHop) []TraceAction {
	actions := make([]TraceAction, 0, len(trace))
	for _, hop := range trace {
		actions = append(actions, hop.Action)
	}
	return actions
}
