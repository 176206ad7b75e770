package spacetree

import (
	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
)

// octreeStrategy splits space eagerly into eight equal octants per level.
type octreeStrategy struct{}

func (octreeStrategy) algorithm() Algorithm {
	return Octree
}

func (s octreeStrategy) subdivide(t *Tree, h Handle, depth int) error {
	if depth <= 0 {
		return nil
	}

	for _, loc := range OctantLocations {
		if err := s.subdivideInDirection(t, h, loc, 1); err != nil {
			return err
		}
	}

	// children are read after creation since the loop above may have allocated
	for _, c := range t.Node(h).Children() {
		if c == NoHandle {
			continue
		}
		if err := s.subdivide(t, c, depth-1); err != nil {
			return err
		}
	}
	return nil
}

// subdivideInDirection creates the chain of children toward one octant
// without touching their siblings.
func (s octreeStrategy) subdivideInDirection(t *Tree, h Handle, direction Location, depth int) error {
	if depth <= 0 {
		return nil
	}

	idx := LocationIndex(direction)
	child := t.Node(h).children[idx]
	if child == NoHandle {
		child = s.createChild(t, h, idx)
	}

	if depth == 1 {
		return nil
	}
	return s.subdivideInDirection(t, child, direction, depth-1)
}

func (octreeStrategy) createChild(t *Tree, h Handle, slot int) Handle {
	ch, child := t.newNode()
	parent := t.Node(h)

	loc := OctantLocations[slot]
	parent.setChild(slot, ch)
	child.PartitionLocation = loc
	child.setBox(NewBoundingBox(minForSubQuadrant(parent.Box, loc), maxForSubQuadrant(parent.Box, loc)))
	return ch
}

// minForSubQuadrant takes each component of the octant's min corner from the
// parent center on positive axes and from the parent min on negative ones.
func minForSubQuadrant(box BoundingBox, loc Location) mgl64.Vec3 {
	mustValid(loc)
	center := box.Center()

	min := center
	if loc&NegativeXBit != 0 {
		min[0] = box.Min[0]
	}
	if loc&NegativeYBit != 0 {
		min[1] = box.Min[1]
	}
	if loc&NegativeZBit != 0 {
		min[2] = box.Min[2]
	}
	return min
}

func maxForSubQuadrant(box BoundingBox, loc Location) mgl64.Vec3 {
	mustValid(loc)
	center := box.Center()

	max := box.Max
	if loc&NegativeXBit != 0 {
		max[0] = center[0]
	}
	if loc&NegativeYBit != 0 {
		max[1] = center[1]
	}
	if loc&NegativeZBit != 0 {
		max[2] = center[2]
	}
	return max
}

// expandToInclude grows the node and then the child the point falls in, so a
// tree that starts as a single degenerate root grows as points arrive.
func (s octreeStrategy) expandToInclude(t *Tree, h Handle, point mgl64.Vec3) error {
	n := t.Node(h)
	box := n.Box
	box.ExpandToInclude(point)
	n.setBox(box)

	if n.IsLeaf() || !n.Contains(point) {
		return nil
	}

	child := n.children[LocationIndex(LocationFromPoint(point, n.Box.Center()))]
	if child == NoHandle {
		return nil
	}

	if err := s.expandToInclude(t, child, point); err != nil {
		return err
	}

	n.setBox(Union(n.Box, t.Node(child).Box))
	return nil
}

// insert records e on every node from h down to the leaf holding position.
func (s octreeStrategy) insert(t *Tree, h Handle, e Entity, position mgl64.Vec3, loc Location) error {
	n := t.Node(h)
	n.entities = append(n.entities, e)

	if n.IsLeaf() {
		return nil
	}

	child := n.children[LocationIndex(loc)]
	if child == NoHandle {
		n.held = append(n.held, e)
		return nil
	}

	next := LocationFromPoint(position, t.Node(child).Box.Center())
	return s.insert(t, child, e, position, next)
}

func (octreeStrategy) rebuild(t *Tree) error {
	return unsupported("Rebuild", Octree)
}

func (octreeStrategy) needsRebuild(t *Tree, h Handle) (bool, error) {
	return false, unsupported("NeedsRebuild", Octree)
}

func (octreeStrategy) update(t *Tree, h Handle) error {
	return unsupported("Update", Octree)
}

func (s octreeStrategy) findNode(t *Tree, h Handle, point mgl64.Vec3) (Handle, error) {
	n := t.Node(h)
	if !n.Contains(point) {
		return NoHandle, ErrOutsideSpace
	}

	if n.IsLeaf() {
		return h, nil
	}

	child := n.children[LocationIndex(LocationFromPoint(point, n.Box.Center()))]
	if child == NoHandle {
		// partially subdivided, the node itself is the tightest match
		return h, nil
	}

	found, err := s.findNode(t, child, point)
	if err != nil {
		t.log.WithFields(log.Fields{
			"node":  h,
			"point": point,
		}).Debug("point outside of expected child, keeping parent")
		return h, nil
	}
	return found, nil
}

func (s octreeStrategy) findNodeAt(t *Tree, h Handle, loc Location, atDepth int) (Handle, error) {
	n := t.Node(h)
	if n.IsLeaf() || atDepth <= 0 {
		return h, nil
	}

	child := n.children[LocationIndex(loc)]
	if child == NoHandle {
		return h, nil
	}
	return s.findNodeAt(t, child, loc, atDepth-1)
}

func (s octreeStrategy) findFurthestNode(t *Tree, h Handle, loc Location) (Handle, error) {
	n := t.Node(h)
	if n.IsLeaf() {
		return h, nil
	}

	child := n.children[LocationIndex(loc)]
	if child == NoHandle {
		return h, nil
	}
	return s.findFurthestNode(t, child, loc)
}
