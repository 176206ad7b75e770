package spacetree

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used for boundary detection and approximate box comparisons.
const Epsilon = 1e-6

// boundaryNudge is how far a box grows past a point that sits on one of its faces.
const boundaryNudge = 1000 * 1.1920929e-07

const numCorners = 8

type BoundingBox struct {
	Min, Max mgl64.Vec3
	Extent   mgl64.Vec3

	corners [numCorners]mgl64.Vec3
}

// NewBoundingBox builds a box from two opposite corners, in any order.
func NewBoundingBox(a, b mgl64.Vec3) BoundingBox {
	box := BoundingBox{Min: vecMin(a, b), Max: vecMax(a, b)}
	box.recalculate()
	return box
}

// BoxAt returns the degenerate box holding only point.
func BoxAt(point mgl64.Vec3) BoundingBox {
	return NewBoundingBox(point, point)
}

// Union returns the smallest box holding both a and b.
func Union(a, b BoundingBox) BoundingBox {
	return NewBoundingBox(vecMin(a.Min, b.Min), vecMax(a.Max, b.Max))
}

func (b *BoundingBox) recalculate() {
	b.Extent = b.Max.Sub(b.Min)
	b.corners = [numCorners]mgl64.Vec3{
		b.Max,
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},

		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		b.Min,
		{b.Max[0], b.Min[1], b.Min[2]},
	}
}

// Contains is a closed test: points on a face are inside.
func (b BoundingBox) Contains(p mgl64.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// OnBoundary reports whether p lies within Epsilon of one of the six faces.
func (b BoundingBox) OnBoundary(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i]-Epsilon || p[i] > b.Max[i]+Epsilon {
			return false
		}
	}

	for i := 0; i < 3; i++ {
		if math.Abs(p[i]-b.Min[i]) <= Epsilon || math.Abs(p[i]-b.Max[i]) <= Epsilon {
			return true
		}
	}
	return false
}

func (b BoundingBox) Intersects(b2 BoundingBox) bool {
	return (b.Max[0] >= b2.Min[0]) && (b.Min[0] <= b2.Max[0]) &&
		(b.Max[1] >= b2.Min[1]) && (b.Min[1] <= b2.Max[1]) &&
		(b.Max[2] >= b2.Min[2]) && (b.Min[2] <= b2.Max[2])
}

func (b BoundingBox) Equals(b2 BoundingBox) bool {
	return b.Min == b2.Min && b.Max == b2.Max
}

// ApproxEqual compares both corners component-wise within eps.
func (b BoundingBox) ApproxEqual(b2 BoundingBox, eps float64) bool {
	return b.Min.ApproxEqualThreshold(b2.Min, eps) && b.Max.ApproxEqualThreshold(b2.Max, eps)
}

// ExpandToInclude grows the box so that p is inside it. A point already inside
// leaves the box as is. A point just outside a face, or any point on a
// degenerate box, pushes the faces out by boundaryNudge so the box never stays
// flat against the point.
func (b *BoundingBox) ExpandToInclude(p mgl64.Vec3) {
	if b.Contains(p) && !b.IsDegenerate() {
		return
	}

	if b.OnBoundary(p) {
		nudge := mgl64.Vec3{boundaryNudge, boundaryNudge, boundaryNudge}
		b.Min = vecMin(b.Min, p.Sub(nudge))
		b.Max = vecMax(b.Max, p.Add(nudge))
		b.recalculate()
		return
	}

	b.Min = vecMin(b.Min, p)
	b.Max = vecMax(b.Max, p)
	b.recalculate()
}

// ExpandToFill grows the box to cover b2 as well.
func (b *BoundingBox) ExpandToFill(b2 BoundingBox) {
	*b = Union(*b, b2)
}

// Expand returns the union of b and b2 without modifying either.
func (b BoundingBox) Expand(b2 BoundingBox) BoundingBox {
	return Union(b, b2)
}

func (b BoundingBox) IsDegenerate() bool {
	return b.Min == b.Max
}

// Center walks half the extent's length along its direction from Min.
func (b BoundingBox) Center() mgl64.Vec3 {
	if b.IsDegenerate() {
		return b.Min
	}

	length := b.Extent.Len()
	return b.Min.Add(b.Extent.Normalize().Mul(length / 2))
}

func (b BoundingBox) SurfaceArea() float64 {
	x, y, z := b.Extent[0], b.Extent[1], b.Extent[2]
	return 2.0 * (x*y + x*z + y*z)
}

// MaxDimension returns the axis (0, 1 or 2) with the largest extent.
func (b BoundingBox) MaxDimension() int {
	axis := 0
	if b.Extent[1] > b.Extent[axis] {
		axis = 1
	}
	if b.Extent[2] > b.Extent[axis] {
		axis = 2
	}
	return axis
}

// Corners lists the eight corners, counter clockwise on the +z face starting
// at Max, then the same walk on the -z face.
func (b BoundingBox) Corners() [numCorners]mgl64.Vec3 {
	return b.corners
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("BBOX(@min%v , @max%v , @extent%v)", b.Min, b.Max, b.Extent)
}

func vecMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func vecMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

// vecLess is a lexicographic x, y, z order.
func vecLess(a, b mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
