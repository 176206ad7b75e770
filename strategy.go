package spacetree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

type Algorithm int

const (
	Octree Algorithm = iota
	HLBVH
)

func (a Algorithm) String() string {
	switch a {
	case Octree:
		return "octree"
	case HLBVH:
		return "hlbvh"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// Branching returns the number of child slots the algorithm needs.
func (a Algorithm) Branching() int {
	switch a {
	case Octree:
		return 8
	case HLBVH:
		return 2
	default:
		return 0
	}
}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "octree":
		return Octree, nil
	case "hlbvh", "bvh":
		return HLBVH, nil
	default:
		return 0, fmt.Errorf("unknown partition algorithm %q", s)
	}
}

var (
	// ErrUnsupported is matched by every *UnsupportedError.
	ErrUnsupported = errors.New("operation not supported by partition algorithm")

	// ErrOutsideSpace is returned by point queries outside the root box.
	ErrOutsideSpace = errors.New("point is outside of space")
)

// UnsupportedError reports an operation called on an algorithm that does not
// implement it, such as a point query on a BVH or a rebuild on an octree.
type UnsupportedError struct {
	Op        string
	Algorithm Algorithm
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s not implemented for %s", e.Op, e.Algorithm)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

func unsupported(op string, a Algorithm) error {
	return &UnsupportedError{Op: op, Algorithm: a}
}

// strategy is the per-algorithm half of a Tree. Handles and points are in
// tree local space.
type strategy interface {
	algorithm() Algorithm

	subdivide(t *Tree, h Handle, depth int) error
	subdivideInDirection(t *Tree, h Handle, direction Location, depth int) error
	expandToInclude(t *Tree, h Handle, point mgl64.Vec3) error
	insert(t *Tree, h Handle, e Entity, position mgl64.Vec3, loc Location) error

	rebuild(t *Tree) error
	needsRebuild(t *Tree, h Handle) (bool, error)
	update(t *Tree, h Handle) error

	findNode(t *Tree, h Handle, point mgl64.Vec3) (Handle, error)
	findNodeAt(t *Tree, h Handle, loc Location, atDepth int) (Handle, error)
	findFurthestNode(t *Tree, h Handle, loc Location) (Handle, error)
}

func strategyFor(a Algorithm) strategy {
	switch a {
	case Octree:
		return octreeStrategy{}
	case HLBVH:
		return bvhStrategy{}
	default:
		return nil
	}
}
