package spacetree

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrDuplicateScene = errors.New("scene already added")

// SceneTree keeps two views over the same scenes: a BVH partitioning the
// entities and an octree partitioning space.
type SceneTree struct {
	BVH    *Tree
	Octree *Tree

	origin mgl64.Vec3
	scenes map[uuid.UUID]Scene
	order  []uuid.UUID
}

func NewSceneTree(origin mgl64.Vec3, opts ...Option) *SceneTree {
	return newSceneTree(NewBVH(origin, opts...), NewOctree(origin, opts...))
}

// NewSceneTreeFromConfig builds the octree side from cfg, subdivided when cfg
// carries dimensions, and an empty BVH at the same origin. cfg must describe
// an octree.
func NewSceneTreeFromConfig(cfg Config, opts ...Option) (*SceneTree, error) {
	zones, err := NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if zones.Algorithm() != Octree {
		return nil, fmt.Errorf("scene tree zones: %w", unsupported("NewSceneTreeFromConfig", zones.Algorithm()))
	}
	return newSceneTree(NewBVH(zones.Origin(), opts...), zones), nil
}

func newSceneTree(bvh, octree *Tree) *SceneTree {
	return &SceneTree{
		BVH:    bvh,
		Octree: octree,
		origin: octree.Origin(),
		scenes: make(map[uuid.UUID]Scene),
	}
}

func (st *SceneTree) Origin() mgl64.Vec3 {
	return st.origin
}

// AddScene places scene at a world position in both trees.
func (st *SceneTree) AddScene(scene Scene, position mgl64.Vec3) error {
	if scene == nil {
		log.Panic("scene is nil")
	}

	id := scene.ID()
	if _, ok := st.scenes[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScene, id)
	}

	if err := st.BVH.AddScene(scene, position); err != nil {
		return err
	}
	if err := st.Octree.AddScene(scene, position); err != nil {
		return err
	}

	st.scenes[id] = scene
	st.order = append(st.order, id)

	log.WithFields(log.Fields{
		"scene":    id,
		"entities": len(scene.Entities()),
	}).Debug("added scene")
	return nil
}

func (st *SceneTree) Scene(id uuid.UUID) (Scene, bool) {
	s, ok := st.scenes[id]
	return s, ok
}

// Scenes returns the scenes in the order they were added.
func (st *SceneTree) Scenes() []Scene {
	scenes := make([]Scene, 0, len(st.order))
	for _, id := range st.order {
		scenes = append(scenes, st.scenes[id])
	}
	return scenes
}

// Update refits the entity hierarchy. The octree partitions space and has
// nothing to refit.
func (st *SceneTree) Update() error {
	return st.BVH.Update()
}
