package battle

import (
	"slices"

	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// NodeType flags restrict which units may use a node.
type NodeType int

const (
	NodeAny NodeType = 0
	// NodeSmall nodes only fit units of size one.
	NodeSmall NodeType = 1 << 0
	// NodeFlying nodes are only reachable by flying units.
	NodeFlying NodeType = 1 << 1
)

// Node is a patrol waypoint.
type Node struct {
	ID       int
	Pos      geo.Position
	Rank     int
	Priority int
	Type     NodeType
	Links    []int
}

// Fits reports whether a unit of the given size may use the node.
func (n *Node) Fits(size int) bool {
	if n.Type&NodeFlying != 0 {
		return false
	}
	return size <= 1 || n.Type&NodeSmall == 0
}

// NodeGraph is the patrol waypoint network of one map.
type NodeGraph struct {
	nodes []*Node
	byID  map[int]*Node
}

// NewNodeGraph creates an empty graph.
func NewNodeGraph() *NodeGraph {
	return &NodeGraph{byID: make(map[int]*Node)}
}

// Add inserts a node, replacing any node with the same ID.
func (g *NodeGraph) Add(n *Node) {
	if old, ok := g.byID[n.ID]; ok {
		idx := slices.Index(g.nodes, old)
		g.nodes[idx] = n
	} else {
		g.nodes = append(g.nodes, n)
	}
	g.byID[n.ID] = n
}

// Link connects two nodes both ways. Unknown IDs are ignored.
func (g *NodeGraph) Link(a, b int) {
	na, okA := g.byID[a]
	nb, okB := g.byID[b]
	if !okA || !okB || a == b {
		return
	}
	if !slices.Contains(na.Links, b) {
		na.Links = append(na.Links, b)
	}
	if !slices.Contains(nb.Links, a) {
		nb.Links = append(nb.Links, a)
	}
}

// Nodes returns all nodes in insertion order.
func (g *NodeGraph) Nodes() []*Node {
	return g.nodes
}

// Node looks up a node by ID.
func (g *NodeGraph) Node(id int) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Len returns the node count.
func (g *NodeGraph) Len() int {
	return len(g.nodes)
}
