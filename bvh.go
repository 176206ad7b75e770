package spacetree

import (
	"bytes"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
)

const (
	Left  = 0
	Right = 1
)

// bvhStrategy is a binary hierarchy built bottom up from object positions.
// Insertion only catalogues objects on the root; the hierarchy is produced
// by rebuild.
type bvhStrategy struct{}

func (bvhStrategy) algorithm() Algorithm {
	return HLBVH
}

func (bvhStrategy) subdivide(t *Tree, h Handle, depth int) error {
	return unsupported("Subdivide", HLBVH)
}

func (bvhStrategy) subdivideInDirection(t *Tree, h Handle, direction Location, depth int) error {
	return unsupported("SubdivideInDirection", HLBVH)
}

func (bvhStrategy) expandToInclude(t *Tree, h Handle, point mgl64.Vec3) error {
	return unsupported("ExpandToInclude", HLBVH)
}

func (bvhStrategy) findNode(t *Tree, h Handle, point mgl64.Vec3) (Handle, error) {
	return NoHandle, unsupported("FindNode", HLBVH)
}

func (bvhStrategy) findNodeAt(t *Tree, h Handle, loc Location, atDepth int) (Handle, error) {
	return NoHandle, unsupported("FindNodeAt", HLBVH)
}

func (bvhStrategy) findFurthestNode(t *Tree, h Handle, loc Location) (Handle, error) {
	return NoHandle, unsupported("FindFurthestNode", HLBVH)
}

// insert appends e to the node without walking into its children. A leaf
// grows its box to fit the new object, so a single insert into a fresh root
// leaves a leaf that fits exactly that object. An internal node holds the
// object itself until the next rebuild gives it a leaf.
func (bvhStrategy) insert(t *Tree, h Handle, e Entity, position mgl64.Vec3, _ Location) error {
	n := t.Node(h)
	n.entities = append(n.entities, e)

	fit := FitBox(position, e.Scale())
	if !n.IsLeaf() {
		n.held = append(n.held, e)
		n.setBox(Union(n.Box, fit))
		n.Built = false
		return nil
	}

	if len(n.entities) == 1 {
		n.setBox(fit)
	} else {
		n.setBox(Union(n.Box, fit))
	}
	return nil
}

// needsRebuild never asks for a rebuild. Rebuilds are driven by the owner;
// the Built flags computed by update are informational.
func (bvhStrategy) needsRebuild(t *Tree, h Handle) (bool, error) {
	return false, nil
}

func (s bvhStrategy) rebuild(t *Tree) error {
	space := t.Space()
	entities := space.entities
	space.entities = nil

	t.initialize(mgl64.Vec3{})
	s.rebuildTree(t, t.space, entities)

	if len(entities) > 0 {
		if want := 2*len(entities) - 1; t.nodes.len() != want {
			log.Panicf("invalid number of nodes after rebuild : %d != %d", t.nodes.len(), want)
		}
	}

	root := t.Space()
	t.log.WithFields(log.Fields{
		"entities": len(entities),
		"nodes":    t.nodes.len(),
		"min":      root.Box.Min,
		"max":      root.Box.Max,
	}).Debug("rebuilt tree")
	return nil
}

func (s bvhStrategy) rebuildTree(t *Tree, space Handle, entities []Entity) {
	switch len(entities) {
	case 0:
		t.Node(space).setBox(BoundingBox{})
	case 1:
		root := t.Node(space)
		root.entities = append(root.entities[:0], entities[0])
		root.setBox(FitBox(t.localPosition(entities[0]), entities[0].Scale()))
	default:
		sorted := make([]Entity, len(entities))
		copy(sorted, entities)
		sort.SliceStable(sorted, func(i, j int) bool {
			pi, pj := t.localPosition(sorted[i]), t.localPosition(sorted[j])
			if pi != pj {
				return vecLess(pi, pj)
			}
			idi, idj := sorted[i].ID(), sorted[j].ID()
			return bytes.Compare(idi[:], idj[:]) < 0
		})

		leaves := make([]Handle, len(sorted))
		for i, e := range sorted {
			h, n := t.newNode()
			n.entities = []Entity{e}
			n.setBox(FitBox(t.localPosition(e), e.Scale()))
			leaves[i] = h
		}

		s.treeFromSortedList(t, leaves, space)
	}

	s.markBuilt(t, space)
}

// treeFromSortedList splits the list around its median leaf and pairs that
// leaf with whichever half yields the smaller merged surface area. The
// combining node at this level is written into `into` when it is valid.
func (s bvhStrategy) treeFromSortedList(t *Tree, nodes []Handle, into Handle) Handle {
	if len(nodes) == 0 {
		return NoHandle
	}

	idx := len(nodes) / 2
	if len(nodes)%2 == 0 {
		// of the two middle leaves take the one nearer the tree origin
		test1, test2 := len(nodes)/2, len(nodes)/2-1
		d1 := t.Node(nodes[test1]).Box.Center().Len()
		d2 := t.Node(nodes[test2]).Box.Center().Len()
		if d1 < d2 {
			idx = test1
		} else {
			idx = test2
		}
	}

	center := nodes[idx]
	lchild := s.treeFromSortedList(t, nodes[:idx], NoHandle)
	rchild := s.treeFromSortedList(t, nodes[idx+1:], NoHandle)

	switch {
	case lchild == NoHandle && rchild == NoHandle:
		return center
	case rchild == NoHandle:
		return s.join(t, into, lchild, center)
	case lchild == NoHandle:
		return s.join(t, into, center, rchild)
	}

	cb := t.Node(center).Box
	lbox := Union(cb, t.Node(lchild).Box)
	rbox := Union(cb, t.Node(rchild).Box)

	if lbox.SurfaceArea() < rbox.SurfaceArea() {
		pair := s.join(t, NoHandle, lchild, center)
		return s.join(t, into, pair, rchild)
	}

	pair := s.join(t, NoHandle, center, rchild)
	return s.join(t, into, lchild, pair)
}

// join makes left and right the children of a node, allocating one unless
// into names an existing node to reuse.
func (bvhStrategy) join(t *Tree, into, left, right Handle) Handle {
	h := into
	if h == NoHandle {
		h, _ = t.newNode()
	}

	n := t.Node(h)
	n.setChild(Left, left)
	n.setChild(Right, right)

	l, r := t.Node(left), t.Node(right)
	l.PartitionLocation = Left
	r.PartitionLocation = Right

	n.entities = make([]Entity, 0, len(l.entities)+len(r.entities))
	n.entities = append(n.entities, l.entities...)
	n.entities = append(n.entities, r.entities...)
	n.setBox(Union(l.Box, r.Box))
	return h
}

func (s bvhStrategy) markBuilt(t *Tree, h Handle) {
	n := t.Node(h)
	n.Built = true
	for _, c := range n.Children() {
		if c != NoHandle {
			s.markBuilt(t, c)
		}
	}
}

// update refits every box to the live object positions, bottom up, then
// flags stale pairings. A leaf whose sibling outgrew the box on the other side
// of its grandparent marks itself stale and the flag is carried to the root.
func (s bvhStrategy) update(t *Tree, h Handle) error {
	s.refit(t, h)
	s.markStale(t, h)
	return nil
}

func (s bvhStrategy) refit(t *Tree, h Handle) {
	n := t.Node(h)

	if n.IsLeaf() {
		if len(n.entities) == 0 {
			return
		}
		box := FitBox(t.localPosition(n.entities[0]), n.entities[0].Scale())
		for _, e := range n.entities[1:] {
			box = Union(box, FitBox(t.localPosition(e), e.Scale()))
		}
		n.setBox(box)
		return
	}

	var box BoundingBox
	first := true
	for _, c := range n.Children() {
		if c == NoHandle {
			continue
		}
		s.refit(t, c)

		if cb := t.Node(c).Box; first {
			box = cb
			first = false
		} else {
			box = Union(box, cb)
		}
	}
	for _, e := range n.held {
		box = Union(box, FitBox(t.localPosition(e), e.Scale()))
	}
	n.setBox(box)
}

func (s bvhStrategy) markStale(t *Tree, h Handle) {
	n := t.Node(h)

	if n.IsLeaf() {
		if s.drifted(t, n) {
			n.Built = false
		}
		return
	}

	for _, c := range n.Children() {
		if c == NoHandle {
			continue
		}
		s.markStale(t, c)
		if !t.Node(c).Built {
			n.Built = false
		}
	}
}

func (bvhStrategy) drifted(t *Tree, n *Node) bool {
	if n.IsRoot() {
		return false
	}
	parent := t.Node(n.Parent)
	if parent.IsRoot() {
		return false
	}
	grandparent := t.Node(parent.Parent)

	sibling := parent.children[1-n.PartitionIndex]
	opposite := grandparent.children[1-parent.PartitionIndex]
	if sibling == NoHandle || opposite == NoHandle {
		return false
	}
	return t.Node(sibling).Box.SurfaceArea() > t.Node(opposite).Box.SurfaceArea()
}
