package netlab

// firewall.go holds the run-time representation of a stateless
// filtering device: an ordered access-control list evaluated clause by
// clause, with a default policy when no rule matches.

import (
	"fmt"
	"sort"
	"strings"
)

// A firewallDev is the run-time representation of a firewall.  The rule
// list is sorted by ascending order once at construction.
type firewallDev struct {
	fwNode  *NodeDesc
	fwTopo  *Topology
	fwRules []ACLRuleDesc
}

// createFirewallDev is a constructor
func createFirewallDev(topo *Topology, node *NodeDesc) *firewallDev {
	fw := new(firewallDev)
	fw.fwNode = node
	fw.fwTopo = topo
	fw.fwRules = make([]ACLRuleDesc, len(node.Rules))
	copy(fw.fwRules, node.Rules)
	sort.SliceStable(fw.fwRules, func(i, j int) bool {
		return fw.fwRules[i].Order < fw.fwRules[j].Order
	})
	return fw
}

// devName returns the firewall label, as part of the topoDev interface
func (fw *firewallDev) devName() string {
	return fw.fwNode.Label
}

// devID returns the firewall id, as part of the topoDev interface
func (fw *firewallDev) devID() string {
	return fw.fwNode.ID
}

// devType returns the firewall's device type, as part of the topoDev interface
func (fw *firewallDev) devType() string {
	return FirewallType
}

// ipClauseMatches evaluates one address clause against a packet address.
// A clause containing a '/' is a CIDR containment test, otherwise exact
// equality.  Empty and "any" clauses match everything.
func ipClauseMatches(clause, addr string) bool {
	if clause == "" || clause == AnyClause {
		return true
	}
	if strings.Contains(clause, "/") {
		return cidrContains(clause, addr)
	}
	return clause == addr
}

// ruleMatches reports whether every configured clause of the rule
// matches the packet
func ruleMatches(rule ACLRuleDesc, pckt Packet) bool {
	if rule.Proto != "" && rule.Proto != AnyClause && rule.Proto != pckt.Protocol {
		return false
	}
	if !ipClauseMatches(rule.SrcIP, pckt.SrcIP) {
		return false
	}
	if !ipClauseMatches(rule.DstIP, pckt.DstIP) {
		return false
	}
	if rule.SrcPort != 0 && rule.SrcPort != pckt.SrcPort {
		return false
	}
	if rule.DstPort != 0 && rule.DstPort != pckt.DstPort {
		return false
	}
	return true
}

// process filters one packet.  A packet addressed to a firewall
// interface is consumed.  Otherwise the first matching rule's action
// decides, falling back to the default policy; an allowed packet leaves
// through the first non-ingress interface with a link attached, source
// hardware address rewritten to that interface.
func (fw *firewallDev) process(ingressID string, pckt Packet, clock int) devResult {
	res := devResult{}
	node := fw.fwNode

	for _, intrfc := range node.Intrfcs {
		if pckt.DstIP != "" && pckt.DstIP == ipFromCIDR(intrfc.IPAddr) {
			res.hops = append(res.hops, hop(clock, node, ingressID, DeliverAction, "Addressed to firewall interface", pckt))
			res.delivered = true
			return res
		}
	}

	res.hops = append(res.hops, hop(clock, node, ingressID, ReceiveAction, "Packet received for filtering", pckt))

	action := node.DefaultPolicy
	if action == "" {
		action = AllowAction
	}
	reason := fmt.Sprintf("No ACL rule matched, default policy %s", action)
	for _, rule := range fw.fwRules {
		if ruleMatches(rule, pckt) {
			action = rule.Action
			reason = fmt.Sprintf("Matched ACL rule %d (%s)", rule.Order, rule.Action)
			break
		}
	}

	if action == DenyAction {
		res.hops = append(res.hops, hop(clock, node, ingressID, ACLDenyAction, reason, pckt))
		return res
	}

	res.hops = append(res.hops, hop(clock, node, ingressID, ACLAllowAction, reason, pckt))

	// first non-ingress interface with a peer carries the packet onward
	for idx := range node.Intrfcs {
		egress := &node.Intrfcs[idx]
		if egress.ID == ingressID {
			continue
		}
		peerNode, peerIntrfc, connected := findPeer(fw.fwTopo, node.ID, egress.ID)
		if !connected {
			continue
		}
		pckt.SrcMAC = egress.MAC
		res.hops = append(res.hops, hop(clock, node, egress.ID, ForwardAction,
			fmt.Sprintf("Forwarding via %s", egress.ID), pckt))
		res.events = append(res.events, delivery{pckt: pckt, nodeID: peerNode, intrfcID: peerIntrfc})
		return res
	}
	return res
}
