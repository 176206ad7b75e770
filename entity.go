package spacetree

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Entity is an object owned by the entity system. The tree only keeps a
// reference to it and never manages its lifetime.
type Entity interface {
	ID() uuid.UUID
	Position() mgl64.Vec3
	Scale() mgl64.Vec3
}

// Scene is a group of entities inserted together.
type Scene interface {
	ID() uuid.UUID
	Entities() []Entity
}

// Collection is a plain in-memory Scene.
type Collection struct {
	id       uuid.UUID
	entities []Entity
}

func NewCollection(entities ...Entity) *Collection {
	return &Collection{
		id:       uuid.New(),
		entities: entities,
	}
}

func (c *Collection) ID() uuid.UUID {
	return c.id
}

func (c *Collection) Entities() []Entity {
	return c.entities
}

func (c *Collection) Add(e Entity) {
	c.entities = append(c.entities, e)
}

// spherePadding grows a cube of side s by this fraction of s per side so it
// covers the sphere circumscribing the cube.
var spherePadding = (math.Sqrt(3) - 1) / 2

// FitBox is the box a BVH leaf uses for an object of the given scale centered
// at position. It covers the object under any rotation and is never degenerate.
func FitBox(position, scale mgl64.Vec3) BoundingBox {
	var half mgl64.Vec3
	for i := 0; i < 3; i++ {
		s := math.Abs(scale[i])
		half[i] = s/2 + s*spherePadding + Epsilon
	}
	return NewBoundingBox(position.Sub(half), position.Add(half))
}

// BoxFromEntity fits a box around e at its live position.
func BoxFromEntity(e Entity) BoundingBox {
	return FitBox(e.Position(), e.Scale())
}
