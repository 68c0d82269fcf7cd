package model

// Tree is a fitted decision tree stored as an arena of nodes. Nodes[0] is
// the root; child links are indices into Nodes.
type Tree struct {
	Nodes []Node
}

// Node is a single decision or leaf record.
//
// For an internal node, rows with x[Feature] <= Threshold follow True and
// the rest follow False. Class is the majority label of the training rows
// that reached the node.
type Node struct {
	Leaf      bool
	Class     int
	Feature   int
	Threshold float64
	True      int
	False     int
	Samples   int
	Impurity  float64
	Probas    []float64
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if t == nil || len(t.Nodes) == 0 {
		return nil
	}
	return &t.Nodes[0]
}

// Len returns the node count.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Nodes)
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if t.Len() == 0 {
		return 0
	}
	var walk func(id int) int
	walk = func(id int) int {
		n := &t.Nodes[id]
		if n.Leaf {
			return 0
		}
		return 1 + max(walk(n.True), walk(n.False))
	}
	return walk(0)
}

// Leaves returns the number of leaf nodes.
func (t *Tree) Leaves() int {
	c := 0
	for i := range t.Nodes {
		if t.Nodes[i].Leaf {
			c++
		}
	}
	return c
}

// leafFor walks x down from the root and returns the leaf it lands in.
func (t *Tree) leafFor(x []float64) *Node {
	n := &t.Nodes[0]
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.True]
		} else {
			n = &t.Nodes[n.False]
		}
	}
	return n
}
