package spacetree

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/bmp"
)

var (
	NodeColor   = color.RGBA{255, 0, 0, 255}
	EntityColor = color.RGBA{0, 255, 0, 255}
)

// Canvas draws the XY projection of trees for debugging. It is created and
// owned by the caller; nothing about it is cached inside a Tree.
type Canvas struct {
	frame *image.RGBA
	min   mgl64.Vec3
	scale float64
}

// NewCanvas covers the XY extent of bounds at scale pixels per world unit.
func NewCanvas(bounds BoundingBox, scale float64) *Canvas {
	if scale <= 0 {
		scale = 1
	}

	w := int(bounds.Extent[0]*scale) + 1
	h := int(bounds.Extent[1]*scale) + 1
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	return &Canvas{
		frame: frame,
		min:   bounds.Min,
		scale: scale,
	}
}

func (c *Canvas) Image() *image.RGBA {
	return c.frame
}

func (c *Canvas) project(p mgl64.Vec3) (int, int) {
	return int((p[0] - c.min[0]) * c.scale), int((p[1] - c.min[1]) * c.scale)
}

// Rect outlines the XY footprint of box.
func (c *Canvas) Rect(box BoundingBox, col color.Color) {
	x1, y1 := c.project(box.Min)
	x2, y2 := c.project(box.Max)

	hline := func(x1, y, x2 int) {
		for ; x1 <= x2; x1++ {
			c.frame.Set(x1, y, col)
		}
	}

	vline := func(x, y1, y2 int) {
		for ; y1 <= y2; y1++ {
			c.frame.Set(x, y1, col)
		}
	}

	hline(x1, y1, x2)
	hline(x1, y2, x2)
	vline(x1, y1, y2)
	vline(x2, y1, y2)
}

// DrawTree outlines the nodes of t down to depth levels, then every entity.
func (c *Canvas) DrawTree(t *Tree, depth int) {
	t.WalkBounds(depth, func(_ Handle, box BoundingBox, _ int) {
		c.Rect(box, NodeColor)
	})

	t.EntityBounds(func(_ Entity, box BoundingBox) {
		c.Rect(box, EntityColor)
	})
}

func (c *Canvas) Encode(w io.Writer) error {
	return bmp.Encode(w, c.frame)
}

func (c *Canvas) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating canvas file: %w", err)
	}
	defer f.Close()

	if err := c.Encode(f); err != nil {
		return fmt.Errorf("encoding canvas: %w", err)
	}
	return f.Close()
}
