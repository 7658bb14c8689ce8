package netlab

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologyLookups(t *testing.T) {
	topo := switchedPair(1, 1, true)

	node := topo.NodeByID("SW")
	require.NotNil(t, node)
	assert.Equal(t, SwitchType, node.Type)
	assert.Nil(t, topo.NodeByID("nope"))

	intrfc := node.intrfcByID("p2")
	require.NotNil(t, intrfc)
	assert.Equal(t, AccessMode, intrfc.Mode)
	assert.Nil(t, node.intrfcByID("p9"))

	first := topo.NodeByID("A").firstIntrfc()
	require.NotNil(t, first)
	assert.Equal(t, "eth0", first.ID)
}

func TestIsHostLike(t *testing.T) {
	for _, devType := range []string{HostType, PhoneType, ServerType, LaptopType} {
		assert.True(t, isHostLike(devType))
	}
	for _, devType := range []string{SwitchType, RouterType, FirewallType, CloudType} {
		assert.False(t, isHostLike(devType))
	}
}

func TestTopologyRoundTrip(t *testing.T) {
	topo := routedPair()
	dir := t.TempDir()

	for _, filename := range []string{"topo.json", "topo.yaml"} {
		fullpath := filepath.Join(dir, filename)
		require.NoError(t, topo.WriteToFile(fullpath))

		useYAML := filepath.Ext(filename) == ".yaml"
		reloaded, err := ReadTopology(fullpath, useYAML, nil)
		require.NoError(t, err)
		assert.Equal(t, topo.Name, reloaded.Name)
		require.Len(t, reloaded.Nodes, len(topo.Nodes))
		assert.Equal(t, topo.Links, reloaded.Links)
		assert.Equal(t, topo.NodeByID("R").Intrfcs, reloaded.NodeByID("R").Intrfcs)

		// a reloaded topology simulates identically
		before := Simulate(topo, ping("A", "B"), nil)
		after := Simulate(reloaded, ping("A", "B"), nil)
		assert.Equal(t, before.Success, after.Success)
		assert.Equal(t, actionsOf(before.Trace), actionsOf(after.Trace))
	}
}

func TestReadTopologyFromBytes(t *testing.T) {
	doc := []byte(`{"name": "tiny", "nodes": [{"id": "A", "label": "A", "type": "host",
		"intrfcs": [{"id": "eth0", "mac": "02:AA:00:00:00:01", "ipaddr": "10.0.0.1/24"}]}], "links": []}`)

	topo, err := ReadTopology("", false, doc)
	require.NoError(t, err)
	assert.Equal(t, "tiny", topo.Name)
	require.Len(t, topo.Nodes, 1)
	assert.Equal(t, "02:AA:00:00:00:01", topo.Nodes[0].Intrfcs[0].MAC)
}

func TestTopologyValidate(t *testing.T) {
	topo := switchedPair(1, 1, true)
	assert.Empty(t, topo.Validate())

	// a dangling link, a duplicated endpoint, and a bad route each warn
	topo.AddLink("A", "eth0", "ghost", "eth0")
	topo.AddLink("B", "eth0", "SW", "p1")
	router := topo.AddNode(NodeDesc{ID: "R", Label: "R", Type: RouterType,
		Intrfcs: []IntrfcDesc{{ID: "eth0", MAC: "02:CC:00:00:00:09", IPAddr: "10.0.0.1/24"}}})
	router.Routes = []RouteDesc{{Prefix: "0.0.0.0/0", NextHop: "10.0.0.254", Intrfc: "eth7"}}

	diags := topo.Validate()
	assert.Contains(t, diags, "link 2 references an unknown node")
	assert.Contains(t, diags, "route 0.0.0.0/0 on R names unknown interface eth7")

	var sawDuplicateEndpt bool
	for _, diag := range diags {
		if diag == "endpoint B.eth0 appears in more than one link" ||
			diag == "endpoint SW.p1 appears in more than one link" {
			sawDuplicateEndpt = true
		}
	}
	assert.True(t, sawDuplicateEndpt)
}
