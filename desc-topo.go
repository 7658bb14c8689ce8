package netlab

// desc-topo.go holds the value types that describe a simulated network
// topology: devices, their interfaces, the links between them, static
// routes, and access-control rules.  A Topology is an immutable snapshot
// for the duration of one simulation; run-time device representations
// are built from it at simulator startup and discarded with the result.

import (
	"encoding/json"
	"fmt"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"strings"
)

// device type tags carried by NodeDesc.Type
const (
	HostType     = "host"
	PhoneType    = "phone"
	ServerType   = "server"
	LaptopType   = "laptop"
	SwitchType   = "switch"
	RouterType   = "router"
	FirewallType = "firewall"
	CloudType    = "cloud"
)

// hostLikeTypes lists the device types that may originate and terminate
// traffic on their own behalf
var hostLikeTypes []string = []string{HostType, PhoneType, ServerType, LaptopType}

// isHostLike tells whether the named device type can originate traffic
func isHostLike(devType string) bool {
	return slices.Contains(hostLikeTypes, devType)
}

// An IntrfcDesc describes a port on a device.  The hardware address is
// a 48-bit MAC in colon-hex.  IPAddr, when present, is CIDR notation
// (address with prefix length); a pure layer-2 device leaves it empty.
// VLAN and Mode configure switch ports; AllowedVLANs restricts a trunk,
// an empty list meaning no restriction.
type IntrfcDesc struct {
	ID           string `json:"id" yaml:"id"`
	MAC          string `json:"mac" yaml:"mac"`
	IPAddr       string `json:"ipaddr,omitempty" yaml:"ipaddr,omitempty"`
	VLAN         int    `json:"vlan,omitempty" yaml:"vlan,omitempty"`
	Mode         string `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowedVLANs []int  `json:"allowedvlans,omitempty" yaml:"allowedvlans,omitempty"`
}

// port modes for switch interfaces
const (
	AccessMode = "access"
	TrunkMode  = "trunk"
)

// A RouteDesc describes one static route on a router: a destination
// prefix in CIDR form, the next-hop address, and the identity of the
// egress interface.  The longest matching prefix wins; position in the
// route list only breaks ties between equal-length matches, the earlier
// route winning.
type RouteDesc struct {
	Prefix  string `json:"prefix" yaml:"prefix"`
	NextHop string `json:"nexthop" yaml:"nexthop"`
	Intrfc  string `json:"intrfc" yaml:"intrfc"`
}

// ACL rule actions and the wildcard accepted by rule clauses
const (
	AllowAction = "allow"
	DenyAction  = "deny"
	AnyClause   = "any"
)

// An ACLRuleDesc describes one access-control rule.  Rules are evaluated
// in ascending Order; a clause left empty (or set to "any") matches
// every packet.  IP clauses containing a '/' are treated as CIDR
// containment tests, otherwise as exact address equality.  A port clause
// of zero is unset.
type ACLRuleDesc struct {
	ID      string `json:"id" yaml:"id"`
	Order   int    `json:"order" yaml:"order"`
	Action  string `json:"action" yaml:"action"`
	SrcIP   string `json:"srcip,omitempty" yaml:"srcip,omitempty"`
	DstIP   string `json:"dstip,omitempty" yaml:"dstip,omitempty"`
	Proto   string `json:"proto,omitempty" yaml:"proto,omitempty"`
	SrcPort int    `json:"srcport,omitempty" yaml:"srcport,omitempty"`
	DstPort int    `json:"dstport,omitempty" yaml:"dstport,omitempty"`
}

// A NodeDesc describes one device in the topology.  Type is one of the
// device type tags above.  The trailing fields hold type-specific
// configuration and are meaningful only for the type they name.
type NodeDesc struct {
	ID      string       `json:"id" yaml:"id"`
	Label   string       `json:"label" yaml:"label"`
	Type    string       `json:"type" yaml:"type"`
	Intrfcs []IntrfcDesc `json:"intrfcs" yaml:"intrfcs"`

	// switch configuration
	MACLearning bool  `json:"maclearning,omitempty" yaml:"maclearning,omitempty"`
	VLANdb      []int `json:"vlandb,omitempty" yaml:"vlandb,omitempty"`

	// router configuration
	Routes []RouteDesc `json:"routes,omitempty" yaml:"routes,omitempty"`

	// firewall configuration
	Rules         []ACLRuleDesc `json:"rules,omitempty" yaml:"rules,omitempty"`
	DefaultPolicy string        `json:"defaultpolicy,omitempty" yaml:"defaultpolicy,omitempty"`
}

// intrfcByID returns the interface on the node with the given id, nil
// if the node has no such interface
func (nd *NodeDesc) intrfcByID(intrfcID string) *IntrfcDesc {
	for idx := range nd.Intrfcs {
		if nd.Intrfcs[idx].ID == intrfcID {
			return &nd.Intrfcs[idx]
		}
	}
	return nil
}

// firstIntrfc returns the node's first configured interface, nil when
// the node has none
func (nd *NodeDesc) firstIntrfc() *IntrfcDesc {
	if len(nd.Intrfcs) == 0 {
		return nil
	}
	return &nd.Intrfcs[0]
}

// A LinkDesc describes an undirected edge between two (node, interface)
// endpoints.  Both endpoints must exist, a given endpoint appears in at
// most one link, and a link never joins an interface to itself.
type LinkDesc struct {
	NodeA   string `json:"nodea" yaml:"nodea"`
	IntrfcA string `json:"intrfca" yaml:"intrfca"`
	NodeB   string `json:"nodeb" yaml:"nodeb"`
	IntrfcB string `json:"intrfcb" yaml:"intrfcb"`
}

// A Topology gathers the devices and links making up one network.  It
// is the unit of serialization and the input to a simulation.
type Topology struct {
	Name  string     `json:"name" yaml:"name"`
	Nodes []NodeDesc `json:"nodes" yaml:"nodes"`
	Links []LinkDesc `json:"links" yaml:"links"`
}

// CreateTopology is a constructor
func CreateTopology(name string) *Topology {
	topo := new(Topology)
	topo.Name = name
	topo.Nodes = make([]NodeDesc, 0)
	topo.Links = make([]LinkDesc, 0)
	return topo
}

// AddNode appends a device description to the topology and returns a
// pointer to the stored copy so type-specific fields can be filled in
func (topo *Topology) AddNode(node NodeDesc) *NodeDesc {
	topo.Nodes = append(topo.Nodes, node)
	return &topo.Nodes[len(topo.Nodes)-1]
}

// AddLink records an undirected connection between two (node, interface)
// endpoints
func (topo *Topology) AddLink(nodeA, intrfcA, nodeB, intrfcB string) {
	topo.Links = append(topo.Links, LinkDesc{NodeA: nodeA, IntrfcA: intrfcA, NodeB: nodeB, IntrfcB: intrfcB})
}

// NodeByID returns the description of the node with the given id, nil
// if the topology has no such node
func (topo *Topology) NodeByID(nodeID string) *NodeDesc {
	for idx := range topo.Nodes {
		if topo.Nodes[idx].ID == nodeID {
			return &topo.Nodes[idx]
		}
	}
	return nil
}

// Validate reports diagnostics about the topology: duplicated hardware
// addresses, links naming unknown endpoints or joining an interface to
// itself, endpoints appearing in more than one link, and routes naming
// interfaces their router does not have.  Every finding is a warning;
// none aborts a simulation.
func (topo *Topology) Validate() []string {
	diags := make([]string, 0)

	// hardware addresses are expected to be unique across the topology
	macSeen := make(map[string]string)
	for _, node := range topo.Nodes {
		for _, intrfc := range node.Intrfcs {
			mac := strings.ToUpper(intrfc.MAC)
			if mac == "" {
				continue
			}
			prev, present := macSeen[mac]
			if present {
				diags = append(diags, fmt.Sprintf("duplicate MAC %s on nodes %s and %s", mac, prev, node.ID))
				continue
			}
			macSeen[mac] = node.ID
		}
	}

	endptSeen := make(map[string]bool)
	for idx, link := range topo.Links {
		nodeA := topo.NodeByID(link.NodeA)
		nodeB := topo.NodeByID(link.NodeB)
		if nodeA == nil || nodeB == nil {
			diags = append(diags, fmt.Sprintf("link %d references an unknown node", idx))
			continue
		}
		if nodeA.intrfcByID(link.IntrfcA) == nil || nodeB.intrfcByID(link.IntrfcB) == nil {
			diags = append(diags, fmt.Sprintf("link %d references an unknown interface", idx))
			continue
		}
		if link.NodeA == link.NodeB && link.IntrfcA == link.IntrfcB {
			diags = append(diags, fmt.Sprintf("link %d joins interface %s.%s to itself", idx, link.NodeA, link.IntrfcA))
			continue
		}
		for _, endpt := range []string{link.NodeA + "." + link.IntrfcA, link.NodeB + "." + link.IntrfcB} {
			if endptSeen[endpt] {
				diags = append(diags, fmt.Sprintf("endpoint %s appears in more than one link", endpt))
			}
			endptSeen[endpt] = true
		}
	}

	for _, node := range topo.Nodes {
		for _, route := range node.Routes {
			if node.intrfcByID(route.Intrfc) == nil {
				diags = append(diags, fmt.Sprintf("route %s on %s names unknown interface %s",
					route.Prefix, node.ID, route.Intrfc))
			}
		}
	}
	return diags
}

// WriteToFile stores the Topology struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (topo *Topology) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*topo)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*topo, "", "\t")
	}
	if merr != nil {
		return merr
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		return cerr
	}
	_, werr := f.WriteString(string(bytes[:]))
	f.Close()
	return werr
}

// ReadTopology deserializes a byte slice holding a representation of a
// Topology struct.  If the input argument of dict (those bytes) is empty,
// the file whose name is given is read to acquire them.  A deserialized
// representation is returned, or an error if one is generated from a
// file read or the deserialization.
func ReadTopology(filename string, useYAML bool, dict []byte) (*Topology, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := Topology{}

	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, err
	}

	return &example, nil
}
