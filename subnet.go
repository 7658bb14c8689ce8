package netlab

// subnet.go holds the address arithmetic the devices share: CIDR
// containment, hardware-address classification, longest-prefix route
// selection, link-endpoint lookup, and the minting of packet ids.

import (
	"fmt"
	"net"
	"strings"

	"github.com/iti/rngstream"
)

// BroadcastMAC is the all-stations hardware address
const BroadcastMAC = "FF:FF:FF:FF:FF:FF"

// ipFromCIDR strips a trailing prefix length, so "10.0.0.1/24" becomes
// "10.0.0.1".  An address without a prefix passes through unchanged.
func ipFromCIDR(addr string) string {
	idx := strings.Index(addr, "/")
	if idx < 0 {
		return addr
	}
	return addr[:idx]
}

// cidrContains reports whether the given address lies inside the given
// CIDR block.  Unparseable inputs never match.
func cidrContains(cidr, addr string) bool {
	_, subnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return subnet.Contains(ip)
}

// sameSubnet reports whether addr lies in the subnet implied by an
// interface address in CIDR form (e.g. "10.0.1.1/24")
func sameSubnet(addr, intrfcAddr string) bool {
	return cidrContains(intrfcAddr, addr)
}

// prefixLen returns the prefix length of a CIDR block, -1 when the
// block does not parse
func prefixLen(cidr string) int {
	_, subnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return -1
	}
	ones, _ := subnet.Mask.Size()
	return ones
}

// macEqual compares two hardware addresses, ignoring case
func macEqual(macA, macB string) bool {
	return strings.EqualFold(macA, macB)
}

// isBroadcastMAC reports whether the hardware address is the all-stations address
func isBroadcastMAC(mac string) bool {
	return macEqual(mac, BroadcastMAC)
}

// isMulticastMAC reports whether the hardware address is a group address,
// indicated by the low bit of the first octet
func isMulticastMAC(mac string) bool {
	octets := strings.Split(mac, ":")
	if len(octets) == 0 {
		return false
	}
	var first int
	_, err := fmt.Sscanf(octets[0], "%x", &first)
	if err != nil {
		return false
	}
	return first&0x1 == 1
}

// longestPrefixRoute selects from the route list the route whose prefix
// contains dstIP and whose prefix length is maximal.  Ties resolve to
// the earlier route in the list.  The second return is false when no
// route matches.
func longestPrefixRoute(routes []RouteDesc, dstIP string) (RouteDesc, bool) {
	best := RouteDesc{}
	bestLen := -1
	found := false
	for _, route := range routes {
		if !cidrContains(route.Prefix, dstIP) {
			continue
		}
		rtLen := prefixLen(route.Prefix)
		if rtLen > bestLen {
			best = route
			bestLen = rtLen
			found = true
		}
	}
	return best, found
}

// findPeer looks up the (node, interface) endpoint connected to the
// given endpoint by a link.  The third return is false when the
// endpoint has no link.
func findPeer(topo *Topology, nodeID, intrfcID string) (string, string, bool) {
	for _, link := range topo.Links {
		if link.NodeA == nodeID && link.IntrfcA == intrfcID {
			return link.NodeB, link.IntrfcB, true
		}
		if link.NodeB == nodeID && link.IntrfcB == intrfcID {
			return link.NodeA, link.IntrfcA, true
		}
	}
	return "", "", false
}

// A PcktIDMinter issues packet identifiers: a per-minter sequence
// number followed by a draw from the minter's rng stream.  Streams are
// allocated process-wide in creation order, so two minters created with
// the same name do not issue the same id sequence.
type PcktIDMinter struct {
	seq     int
	rngstrm *rngstream.RngStream
}

// CreatePcktIDMinter is a constructor.  The name labels the minter's rng stream.
func CreatePcktIDMinter(name string) *PcktIDMinter {
	minter := new(PcktIDMinter)
	minter.seq = 0
	minter.rngstrm = rngstream.New(name)
	return minter
}

// MintID returns the next packet identifier
func (minter *PcktIDMinter) MintID() string {
	minter.seq += 1
	return fmt.Sprintf("pckt-%d-%06d", minter.seq, minter.rngstrm.RandInt(0, 999999))
}
