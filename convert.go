package netlab

// convert.go holds the boundary between the graphical editor's document
// form and the engine's topology form.  The editor keeps node positions
// and edge handle ids that mean nothing to the simulator; conversion
// projects them away and resolves each edge endpoint to a concrete
// interface.

import (
	"encoding/json"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"strings"
)

// StorageKey is the fixed key under which a browser deployment keeps
// the current document in local key-value storage
const StorageKey = "netlab-topology"

// dfltIntrfcID is the conventional interface id assumed when an edge
// handle resolves to nothing on a node without interfaces
const dfltIntrfcID = "eth0"

// An XY is an editor canvas position.  The engine ignores it but
// round-trips it so saving and reloading a document preserves layout.
type XY struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// A DocumentNode is a visual node: identity, placement, and the
// configuration blob the editor's forms maintain
type DocumentNode struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Type     string   `json:"type" yaml:"type"`
	Position XY       `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// NodeData is the per-node configuration blob
type NodeData struct {
	Intrfcs       []IntrfcDesc  `json:"intrfcs" yaml:"intrfcs"`
	MACLearning   bool          `json:"maclearning,omitempty" yaml:"maclearning,omitempty"`
	VLANdb        []int         `json:"vlandb,omitempty" yaml:"vlandb,omitempty"`
	Routes        []RouteDesc   `json:"routes,omitempty" yaml:"routes,omitempty"`
	Rules         []ACLRuleDesc `json:"rules,omitempty" yaml:"rules,omitempty"`
	DefaultPolicy string        `json:"defaultpolicy,omitempty" yaml:"defaultpolicy,omitempty"`
}

// A DocumentEdge is a visual edge.  The handle ids name the connection
// points on the drawn nodes and carry a "-source"/"-target" suffix the
// canvas library appends.
type DocumentEdge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourcehandle" yaml:"sourcehandle"`
	TargetHandle string `json:"targethandle" yaml:"targethandle"`
}

// A Document is the persisted editor form of a topology
type Document struct {
	Nodes []DocumentNode `json:"nodes" yaml:"nodes"`
	Edges []DocumentEdge `json:"edges" yaml:"edges"`
}

// intrfcIDFromHandle resolves an edge handle to an interface id on the
// node: the handle with its trailing "-source" or "-target" suffix
// stripped when that names an interface, else the node's first
// interface, else the conventional default
func intrfcIDFromHandle(node *DocumentNode, handle string) string {
	stripped := strings.TrimSuffix(strings.TrimSuffix(handle, "-source"), "-target")
	for _, intrfc := range node.Data.Intrfcs {
		if intrfc.ID == stripped {
			return stripped
		}
	}
	if len(node.Data.Intrfcs) > 0 {
		return node.Data.Intrfcs[0].ID
	}
	return dfltIntrfcID
}

// Topology projects the document to the engine's topology form.  Edges
// whose endpoints name unknown nodes are dropped; everything else is a
// straight copy.
func (doc *Document) Topology(name string) *Topology {
	topo := CreateTopology(name)
	docNodeByID := make(map[string]*DocumentNode)

	for idx := range doc.Nodes {
		docNode := &doc.Nodes[idx]
		docNodeByID[docNode.ID] = docNode
		topo.AddNode(NodeDesc{
			ID:            docNode.ID,
			Label:         docNode.Label,
			Type:          docNode.Type,
			Intrfcs:       docNode.Data.Intrfcs,
			MACLearning:   docNode.Data.MACLearning,
			VLANdb:        docNode.Data.VLANdb,
			Routes:        docNode.Data.Routes,
			Rules:         docNode.Data.Rules,
			DefaultPolicy: docNode.Data.DefaultPolicy,
		})
	}

	for _, edge := range doc.Edges {
		srcNode, srcKnown := docNodeByID[edge.Source]
		dstNode, dstKnown := docNodeByID[edge.Target]
		if !srcKnown || !dstKnown {
			continue
		}
		topo.AddLink(edge.Source, intrfcIDFromHandle(srcNode, edge.SourceHandle),
			edge.Target, intrfcIDFromHandle(dstNode, edge.TargetHandle))
	}
	return topo
}

// WriteToFile stores the Document struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (doc *Document) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*doc)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*doc, "", "\t")
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

// ReadDocument deserializes a byte slice holding a representation of a
// Document struct.  If the input argument of dict (those bytes) is
// empty, the file whose name is given is read to acquire them.
func ReadDocument(filename string, useYAML bool, dict []byte) (*Document, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := Document{}

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
