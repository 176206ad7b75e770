package spacetree

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

const maxChildren = 8

// Node is one cell of a Tree. Nodes are owned by the tree's arena and refer to
// each other by Handle. A *Node stays valid until the tree is rebuilt.
type Node struct {
	Box BoundingBox

	Index  Handle
	Parent Handle

	// PartitionIndex is the slot in the parent's children, -1 for the root.
	PartitionIndex int
	// PartitionLocation is the octant code for octree nodes, 0 or 1 (left or
	// right) for BVH nodes.
	PartitionLocation Location

	// GlobalPosition caches the world position of the box center.
	GlobalPosition mgl64.Vec3

	// Built is false while a BVH subtree may need restructuring.
	Built bool

	children [maxChildren]Handle
	entities []Entity
	// held lists entities whose insertion stopped at this non-leaf node
	// because the child they belong to does not exist.
	held     []Entity
	tree     *Tree
}

// Children returns the child slots, NoHandle for absent children.
func (n *Node) Children() []Handle {
	return n.children[:n.tree.branching]
}

func (n *Node) Child(i int) Handle {
	return n.children[i]
}

func (n *Node) IsLeaf() bool {
	for _, c := range n.Children() {
		if c != NoHandle {
			return false
		}
	}
	return true
}

func (n *Node) IsRoot() bool {
	return n.Parent == NoHandle
}

func (n *Node) Contains(point mgl64.Vec3) bool {
	return n.Box.Contains(point)
}

func (n *Node) Min() mgl64.Vec3 {
	return n.Box.Min
}

func (n *Node) Max() mgl64.Vec3 {
	return n.Box.Max
}

// Entities lists every object tracked at or below this node.
func (n *Node) Entities() []Entity {
	return n.entities
}

// GetMinDepth is the length of the shortest path down to a leaf.
func (n *Node) GetMinDepth() int {
	if n.IsLeaf() {
		return 0
	}

	min := -1
	for _, c := range n.Children() {
		if c == NoHandle {
			continue
		}
		if d := n.tree.Node(c).GetMinDepth() + 1; min < 0 || d < min {
			min = d
		}
	}
	return min
}

// GetMaxDepth is the length of the longest path down to a leaf.
func (n *Node) GetMaxDepth() int {
	if n.IsLeaf() {
		return 0
	}

	max := 0
	for _, c := range n.Children() {
		if c == NoHandle {
			continue
		}
		if d := n.tree.Node(c).GetMaxDepth() + 1; d > max {
			max = d
		}
	}
	return max
}

// Depth counts the edges between n and the root.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != NoHandle; p = n.tree.Node(p).Parent {
		d++
	}
	return d
}

func (n *Node) String() string {
	var sb strings.Builder
	n.serialize(&sb, 0, false)
	return sb.String()
}

func (n *Node) setChild(slot int, child Handle) {
	n.children[slot] = child
	if child == NoHandle {
		return
	}

	c := n.tree.Node(child)
	c.Parent = n.Index
	c.PartitionIndex = slot
}

func (n *Node) setBox(box BoundingBox) {
	n.Box = box
	n.GlobalPosition = n.tree.origin.Add(box.Center())
}

func (n *Node) serialize(w io.Writer, indent int, children bool) {
	pad := strings.Repeat("  ", indent)

	fmt.Fprintf(w, "%s[Node [%d]\n", pad, n.Index)
	fmt.Fprintf(w, "%s  (@%s)\n", pad, n.Box)
	fmt.Fprintf(w, "%s  (@Location(%s , %d) @Dimensions%v @Center%v)\n", pad, n.PartitionLocation, n.PartitionIndex, n.Box.Extent, n.Box.Center())

	if len(n.entities) == 0 {
		fmt.Fprintf(w, "%s  (@Entities = 0)\n", pad)
	} else {
		fmt.Fprintf(w, "%s  (@Entities = %d\n", pad, len(n.entities))
		for _, e := range n.entities {
			fmt.Fprintf(w, "%s   - %s\n", pad, e.ID())
		}
		fmt.Fprintf(w, "%s  )\n", pad)
	}

	if n.IsLeaf() {
		fmt.Fprintf(w, "%s  (@Children = 0)\n", pad)
	} else {
		fmt.Fprintf(w, "%s  (@Children = %d\n", pad, n.tree.branching)
		for i, c := range n.Children() {
			if c == NoHandle {
				fmt.Fprintf(w, "%s   - [%d] = null\n", pad, i)
			} else {
				fmt.Fprintf(w, "%s   - [%d] = %d\n", pad, i, c)
			}
		}
		fmt.Fprintf(w, "%s  )\n", pad)
	}

	if children {
		for _, c := range n.Children() {
			if c != NoHandle {
				n.tree.Node(c).serialize(w, indent+1, true)
			}
		}
	}

	fmt.Fprintf(w, "%s]\n", pad)
}
