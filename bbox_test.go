package spacetree

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBox() BoundingBox {
	return NewBoundingBox(mgl64.Vec3{-0.5, -0.5, -0.5}, mgl64.Vec3{0.5, 0.5, 0.5})
}

func randomBox(r *rand.Rand) BoundingBox {
	a := mgl64.Vec3{r.Float64()*20 - 10, r.Float64()*20 - 10, r.Float64()*20 - 10}
	b := mgl64.Vec3{r.Float64()*20 - 10, r.Float64()*20 - 10, r.Float64()*20 - 10}
	return NewBoundingBox(a, b)
}

func TestNewBoundingBoxOrdersCorners(t *testing.T) {
	box := NewBoundingBox(mgl64.Vec3{1, -2, 3}, mgl64.Vec3{-1, 2, -3})
	assert.Equal(t, mgl64.Vec3{-1, -2, -3}, box.Min)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, box.Max)
	assert.Equal(t, mgl64.Vec3{2, 4, 6}, box.Extent)
}

func TestContains(t *testing.T) {
	box := unitBox()

	tests := []struct {
		name  string
		point mgl64.Vec3
		want  bool
	}{
		{"center", mgl64.Vec3{}, true},
		{"face", mgl64.Vec3{0.5, 0, 0}, true},
		{"corner", mgl64.Vec3{-0.5, -0.5, -0.5}, true},
		{"outside x", mgl64.Vec3{0.6, 0, 0}, false},
		{"outside z", mgl64.Vec3{0, 0, -0.51}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, box.Contains(tt.point))
		})
	}
}

func TestOnBoundary(t *testing.T) {
	box := unitBox()

	tests := []struct {
		name  string
		point mgl64.Vec3
		want  bool
	}{
		{"face", mgl64.Vec3{0.5, 0.1, -0.2}, true},
		{"just outside face", mgl64.Vec3{0.5 + Epsilon/2, 0, 0}, true},
		{"corner", mgl64.Vec3{0.5, 0.5, 0.5}, true},
		{"interior", mgl64.Vec3{0.1, 0.1, 0.1}, false},
		{"face plane but outside", mgl64.Vec3{0.5, 3, 0}, false},
		{"far", mgl64.Vec3{5, 5, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, box.OnBoundary(tt.point))
		})
	}
}

func TestExpandToInclude(t *testing.T) {
	t.Run("interior point is a no-op", func(t *testing.T) {
		box := unitBox()
		box.ExpandToInclude(mgl64.Vec3{0.1, -0.2, 0.3})
		require.True(t, box.Equals(unitBox()))
	})

	t.Run("outside point grows the box", func(t *testing.T) {
		box := unitBox()
		box.ExpandToInclude(mgl64.Vec3{2, 0, -3})
		require.Equal(t, mgl64.Vec3{-0.5, -0.5, -3}, box.Min)
		require.Equal(t, mgl64.Vec3{2, 0.5, 0.5}, box.Max)
		require.Equal(t, mgl64.Vec3{2.5, 1, 3.5}, box.Extent)
		require.True(t, box.Contains(mgl64.Vec3{2, 0, -3}))
	})

	t.Run("point on a face is a no-op", func(t *testing.T) {
		box := unitBox()
		for _, p := range []mgl64.Vec3{{0.5, 0, 0}, {-0.5, 0.2, -0.1}, {0.5, 0.5, 0.5}, {0.5 - Epsilon/2, 0, 0}} {
			box.ExpandToInclude(p)
			require.True(t, box.Equals(unitBox()), "moved by %v: %s", p, box)
		}
	})

	t.Run("point just outside a face is pushed inside", func(t *testing.T) {
		box := unitBox()
		p := mgl64.Vec3{0.5 + Epsilon/2, 0, 0}
		box.ExpandToInclude(p)
		require.InDelta(t, 0.5+Epsilon/2+boundaryNudge, box.Max[0], 1e-12)
		require.InDelta(t, -0.5, box.Min[0], 1e-12)
		require.False(t, box.OnBoundary(p))
		require.True(t, box.Contains(p))
	})

	t.Run("degenerate box gains volume", func(t *testing.T) {
		var box BoundingBox
		box.ExpandToInclude(mgl64.Vec3{})
		require.False(t, box.IsDegenerate())
		require.Greater(t, box.SurfaceArea(), 0.0)
		require.True(t, box.Contains(mgl64.Vec3{}))
	})

	t.Run("corners update", func(t *testing.T) {
		box := unitBox()
		box.ExpandToInclude(mgl64.Vec3{3, 3, 3})
		require.Equal(t, mgl64.Vec3{3, 3, 3}, box.Corners()[0])
		require.Equal(t, mgl64.Vec3{-0.5, 3, 3}, box.Corners()[1])
	})
}

func TestExpandByCornersMatchesUnion(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		a, b := randomBox(r), randomBox(r)

		expanded := a
		for _, c := range b.Corners() {
			expanded.ExpandToInclude(c)
		}

		require.True(t, expanded.ApproxEqual(Union(a, b), Epsilon), "%s != %s", expanded, Union(a, b))
	}
}

func TestExpandByCornersOfInnerBox(t *testing.T) {
	a := NewBoundingBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := NewBoundingBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5})

	expanded := a
	for _, c := range b.Corners() {
		expanded.ExpandToInclude(c)
	}

	require.True(t, expanded.ApproxEqual(Union(a, b), Epsilon), "%s", expanded)
	require.True(t, expanded.Equals(a))
}

func TestUnion(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		a, b, c := randomBox(r), randomBox(r), randomBox(r)

		require.True(t, Union(a, b).Equals(Union(b, a)))
		require.True(t, Union(Union(a, b), c).Equals(Union(a, Union(b, c))))
		require.True(t, Union(a, a).Equals(a))

		u := Union(a, b)
		require.True(t, u.Contains(a.Min) && u.Contains(a.Max))
		require.True(t, u.Contains(b.Min) && u.Contains(b.Max))
	}
}

func TestExpandAndExpandToFill(t *testing.T) {
	a := unitBox()
	b := NewBoundingBox(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2})

	u := a.Expand(b)
	require.True(t, a.Equals(unitBox()))
	require.True(t, u.Equals(Union(a, b)))

	a.ExpandToFill(b)
	require.True(t, a.Equals(u))
}

func TestIntersects(t *testing.T) {
	a := unitBox()

	assert.True(t, a.Intersects(NewBoundingBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})))
	assert.True(t, a.Intersects(NewBoundingBox(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{1, 1, 1})), "touching faces intersect")
	assert.False(t, a.Intersects(NewBoundingBox(mgl64.Vec3{0.6, 0, 0}, mgl64.Vec3{1, 1, 1})))
}

func TestCenter(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		box := randomBox(r)
		want := box.Min.Add(box.Max).Mul(0.5)
		require.True(t, want.ApproxEqualThreshold(box.Center(), 1e-9), "%v != %v", want, box.Center())
	}

	p := mgl64.Vec3{1, 2, 3}
	require.Equal(t, p, BoxAt(p).Center())
}

func TestSurfaceArea(t *testing.T) {
	assert.InDelta(t, 6.0, unitBox().SurfaceArea(), 1e-12)
	assert.InDelta(t, 22.0, NewBoundingBox(mgl64.Vec3{}, mgl64.Vec3{1, 2, 3}).SurfaceArea(), 1e-12)
	assert.Equal(t, 0.0, BoxAt(mgl64.Vec3{4, 4, 4}).SurfaceArea())
}

func TestMaxDimension(t *testing.T) {
	assert.Equal(t, 0, NewBoundingBox(mgl64.Vec3{}, mgl64.Vec3{3, 2, 1}).MaxDimension())
	assert.Equal(t, 1, NewBoundingBox(mgl64.Vec3{}, mgl64.Vec3{1, 3, 2}).MaxDimension())
	assert.Equal(t, 2, NewBoundingBox(mgl64.Vec3{}, mgl64.Vec3{1, 2, 3}).MaxDimension())
	assert.Equal(t, 0, unitBox().MaxDimension())
}

func TestCornersOrder(t *testing.T) {
	c := unitBox().Corners()
	assert.Equal(t, mgl64.Vec3{0.5, 0.5, 0.5}, c[0])
	assert.Equal(t, mgl64.Vec3{-0.5, 0.5, 0.5}, c[1])
	assert.Equal(t, mgl64.Vec3{-0.5, -0.5, 0.5}, c[2])
	assert.Equal(t, mgl64.Vec3{0.5, -0.5, 0.5}, c[3])
	assert.Equal(t, mgl64.Vec3{0.5, 0.5, -0.5}, c[4])
	assert.Equal(t, mgl64.Vec3{-0.5, 0.5, -0.5}, c[5])
	assert.Equal(t, mgl64.Vec3{-0.5, -0.5, -0.5}, c[6])
	assert.Equal(t, mgl64.Vec3{0.5, -0.5, -0.5}, c[7])
}

func TestFitBox(t *testing.T) {
	box := FitBox(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{2, 2, -2})
	half := 1 + 2*spherePadding + Epsilon

	require.True(t, box.Min.ApproxEqualThreshold(mgl64.Vec3{1 - half, 2 - half, 3 - half}, 1e-12))
	require.True(t, box.Max.ApproxEqualThreshold(mgl64.Vec3{1 + half, 2 + half, 3 + half}, 1e-12))
	require.True(t, box.Center().ApproxEqualThreshold(mgl64.Vec3{1, 2, 3}, 1e-9))

	zero := FitBox(mgl64.Vec3{}, mgl64.Vec3{})
	require.False(t, zero.IsDegenerate())
}
