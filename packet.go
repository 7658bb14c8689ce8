package netlab

// packet.go holds the representation of the frames the simulator plays
// through the topology, and the caller-facing specification of the
// traffic to simulate.

// protocol tags carried by Packet.Protocol
const (
	TCPProto   = "tcp"
	UDPProto   = "udp"
	ICMPProto  = "icmp"
	ARPProto   = "arp"
	OtherProto = "other"
)

// dfltTTL is the hop budget given to a packet at origination when the
// caller does not override it
const dfltTTL = 64

// A Packet is one frame in flight.  The ID is minted at origination and
// never changes; copies made while forwarding keep it, which is what
// loop detection keys on.  A VLAN of zero means untagged.  Packets are
// passed by value, so a device mutating its copy (TTL, VLAN rewrite,
// source MAC rewrite) never alters a packet already recorded in a trace.
type Packet struct {
	ID       string `json:"id" yaml:"id"`
	SrcMAC   string `json:"srcmac" yaml:"srcmac"`
	DstMAC   string `json:"dstmac" yaml:"dstmac"`
	SrcIP    string `json:"srcip" yaml:"srcip"`
	DstIP    string `json:"dstip" yaml:"dstip"`
	VLAN     int    `json:"vlan" yaml:"vlan"`
	Protocol string `json:"protocol" yaml:"protocol"`
	SrcPort  int    `json:"srcport" yaml:"srcport"`
	DstPort  int    `json:"dstport" yaml:"dstport"`
	TTL      int    `json:"ttl" yaml:"ttl"`
	Payload  string `json:"payload" yaml:"payload"`
}

// A PacketSpec asks the simulator to play one packet from a source node
// to a destination node.  DstIP overrides the destination address when
// the destination's first interface carries none.  TTL of zero means
// the origination default.
type PacketSpec struct {
	SrcNode  string `json:"srcnode" yaml:"srcnode"`
	DstNode  string `json:"dstnode" yaml:"dstnode"`
	DstIP    string `json:"dstip" yaml:"dstip"`
	Protocol string `json:"protocol" yaml:"protocol"`
	SrcPort  int    `json:"srcport" yaml:"srcport"`
	DstPort  int    `json:"dstport" yaml:"dstport"`
	TTL      int    `json:"ttl" yaml:"ttl"`
	Payload  string `json:"payload" yaml:"payload"`
}
