package netlab

// graph.go provides the pre-flight connectivity analysis over a
// topology.  The general approach is to convert the node/link set into
// the data structures used by a graph package that has built-in path
// discovery algorithms.  Weighting each edge by 1, a shortest path
// minimizes the number of hops.  The Dijkstra algorithm computes a tree
// of shortest paths from a named node, so trees are cached per root and
// reused for every query sharing that root.

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	gtopo "gonum.org/v1/gonum/graph/topo"
)

// A GraphAnalyzer answers reachability, shortest-path, and component
// questions about one topology.  The simulator itself needs only
// IsReachable; the rest exists for pre-flight diagnostics and path
// highlighting.
type GraphAnalyzer struct {
	topo      *Topology
	connGraph *simple.WeightedUndirectedGraph
	idOf      map[string]int64
	nameOf    map[int64]string
	cachedSP  map[string]path.Shortest
}

// CreateGraphAnalyzer is a constructor.  It builds the graph
// representation of the topology: every node becomes a graph node
// (isolated ones included), every link a unit-weight edge.  A link
// joining a node to itself contributes nothing to connectivity and is
// skipped.
func CreateGraphAnalyzer(topo *Topology) *GraphAnalyzer {
	ga := new(GraphAnalyzer)
	ga.topo = topo
	ga.connGraph = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	ga.idOf = make(map[string]int64)
	ga.nameOf = make(map[int64]string)
	ga.cachedSP = make(map[string]path.Shortest)

	for idx := range topo.Nodes {
		gid := int64(idx)
		ga.idOf[topo.Nodes[idx].ID] = gid
		ga.nameOf[gid] = topo.Nodes[idx].ID
		ga.connGraph.AddNode(simple.Node(gid))
	}

	for _, link := range topo.Links {
		aID, aKnown := ga.idOf[link.NodeA]
		bID, bKnown := ga.idOf[link.NodeB]
		if !aKnown || !bKnown || aID == bID {
			continue
		}
		weightedEdge := simple.WeightedEdge{F: simple.Node(aID), T: simple.Node(bID), W: 1.0}
		ga.connGraph.SetWeightedEdge(weightedEdge)
	}
	return ga
}

// spTree returns the shortest path tree rooted in the named node,
// computing and caching it on first use
func (ga *GraphAnalyzer) spTree(from string) path.Shortest {
	tree, present := ga.cachedSP[from]
	if present {
		return tree
	}
	tree = path.DijkstraFrom(simple.Node(ga.idOf[from]), ga.connGraph)
	ga.cachedSP[from] = tree
	return tree
}

// IsReachable reports whether some sequence of links joins the two
// named nodes
func (ga *GraphAnalyzer) IsReachable(src, dst string) bool {
	return len(ga.ShortestPath(src, dst)) > 0
}

// ShortestPath returns the node-id sequence of a minimum-hop path from
// src to dst, inclusive of both, or nil when none exists.  A tree
// already rooted in dst is reused by symmetry, with the path reversed.
func (ga *GraphAnalyzer) ShortestPath(src, dst string) []string {
	_, srcKnown := ga.idOf[src]
	_, dstKnown := ga.idOf[dst]
	if !srcKnown || !dstKnown {
		return nil
	}
	if src == dst {
		return []string{src}
	}

	if tree, present := ga.cachedSP[dst]; present {
		revSeq, _ := tree.To(ga.idOf[src])
		if len(revSeq) == 0 {
			return nil
		}
		revRoute := ga.convertNodeSeq(revSeq)
		route := make([]string, 0, len(revRoute))
		for idx := len(revRoute) - 1; idx > -1; idx-- {
			route = append(route, revRoute[idx])
		}
		return route
	}

	nodeSeq, _ := ga.spTree(src).To(ga.idOf[dst])
	if len(nodeSeq) == 0 {
		return nil
	}
	return ga.convertNodeSeq(nodeSeq)
}

// convertNodeSeq extracts the topology node ids from a sequence of
// graph nodes (e.g. like a path) and returns that list
func (ga *GraphAnalyzer) convertNodeSeq(nsQ []graph.Node) []string {
	rtn := make([]string, 0, len(nsQ))
	for _, node := range nsQ {
		rtn = append(rtn, ga.nameOf[node.ID()])
	}
	return rtn
}

// ConnectedComponent returns the ids of every node reachable from the
// named node, the node itself included
func (ga *GraphAnalyzer) ConnectedComponent(nodeID string) []string {
	gid, known := ga.idOf[nodeID]
	if !known {
		return nil
	}
	for _, component := range gtopo.ConnectedComponents(ga.connGraph) {
		for _, member := range component {
			if member.ID() == gid {
				return ga.convertNodeSeq(component)
			}
		}
	}
	return []string{nodeID}
}

// Validate returns diagnostics about the shape of the graph (isolated
// nodes, a disconnected topology) together with the topology's own
// configuration warnings
func (ga *GraphAnalyzer) Validate() []string {
	diags := make([]string, 0)

	incident := make(map[string]int)
	for _, link := range ga.topo.Links {
		incident[link.NodeA] += 1
		incident[link.NodeB] += 1
	}
	for _, node := range ga.topo.Nodes {
		if incident[node.ID] == 0 {
			diags = append(diags, fmt.Sprintf("node %s is isolated (no links)", node.ID))
		}
	}

	components := gtopo.ConnectedComponents(ga.connGraph)
	if len(components) > 1 {
		diags = append(diags, fmt.Sprintf("topology splits into %d disconnected components", len(components)))
	}

	diags = append(diags, ga.topo.Validate()...)
	return diags
}
