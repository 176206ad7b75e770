// Package spacetree partitions the objects of a 3D scene for point, bounds
// and nearest or furthest region queries. A Tree is either an octree that
// splits space into a fixed grid or a binary bounding volume hierarchy built
// from object positions.
package spacetree

import (
	"fmt"
	"io"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type HitTest func(box BoundingBox) bool

// Tree owns an arena of nodes and the root, called the space. It is not safe
// for concurrent use.
type Tree struct {
	nodes    arena
	space    Handle
	strategy strategy

	algo      Algorithm
	branching int

	numNodes int

	// origin is the world position of the tree's local origin.
	origin mgl64.Vec3

	entities []Entity
	anchors  map[uuid.UUID]mgl64.Vec3

	log     *log.Entry
	metrics *Metrics
}

type Option func(t *Tree)

func WithLogger(entry *log.Entry) Option {
	return func(t *Tree) {
		t.log = entry
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tree) {
		t.metrics = m
	}
}

// New creates a tree with branching children per node. The branching factor
// must match the algorithm: 8 for Octree, 2 for HLBVH.
func New(branching int, algo Algorithm, origin mgl64.Vec3, opts ...Option) *Tree {
	s := strategyFor(algo)
	if s == nil {
		log.Panicf("unknown partition algorithm %s", algo)
	}
	if branching != algo.Branching() {
		log.Panicf("invalid branching factor %d for %s, expected %d", branching, algo, algo.Branching())
	}

	t := &Tree{
		strategy:  s,
		algo:      algo,
		branching: branching,
		numNodes:  NumNodesAtDepth(branching, 0),
		origin:    origin,
		anchors:   make(map[uuid.UUID]mgl64.Vec3),
	}

	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = log.WithField("algorithm", algo.String())
	}

	t.initialize(mgl64.Vec3{})
	return t
}

func NewOctree(origin mgl64.Vec3, opts ...Option) *Tree {
	return New(Octree.Branching(), Octree, origin, opts...)
}

func NewBVH(origin mgl64.Vec3, opts ...Option) *Tree {
	return New(HLBVH.Branching(), HLBVH, origin, opts...)
}

// NumNodesAtDepth is k^0 + k^1 + ... + k^depth, the size of a full tree.
func NumNodesAtDepth(k, depth int) int {
	sum, pow := 0, 1
	for i := 0; i <= depth; i++ {
		sum += pow
		pow *= k
	}
	return sum
}

// initialize drops every node and creates a fresh root of the given
// dimensions centered on the local origin.
func (t *Tree) initialize(dimensions mgl64.Vec3) {
	t.nodes.reset()

	h, space := t.newNode()
	space.PartitionLocation = PxPyPz
	if dimensions == (mgl64.Vec3{}) {
		space.setBox(BoundingBox{})
	} else {
		half := dimensions.Mul(0.5)
		space.setBox(NewBoundingBox(half.Mul(-1), half))
	}
	t.space = h

	if t.nodes.len() != 1 {
		log.Panicf("invalid number of nodes created : %d != 1", t.nodes.len())
	}
	t.metrics.setNodes(t.algo, t.nodes.len())
}

func (t *Tree) newNode() (Handle, *Node) {
	h, n := t.nodes.alloc()
	n.tree = t
	return h, n
}

// Node resolves a handle. The pointer must not be kept across a Rebuild or
// Subdivide.
func (t *Tree) Node(h Handle) *Node {
	return t.nodes.at(h)
}

func (t *Tree) Space() *Node {
	return t.Node(t.space)
}

func (t *Tree) SpaceHandle() Handle {
	return t.space
}

func (t *Tree) Algorithm() Algorithm {
	return t.algo
}

func (t *Tree) Branching() int {
	return t.branching
}

func (t *Tree) Origin() mgl64.Vec3 {
	return t.origin
}

// MoveOriginTo shifts the whole tree to a new world position.
func (t *Tree) MoveOriginTo(origin mgl64.Vec3) {
	t.origin = origin
	for i := 0; i < t.nodes.len(); i++ {
		n := t.Node(Handle(i))
		n.GlobalPosition = origin.Add(n.Box.Center())
	}
}

// NumNodes is the number of live nodes in the arena.
func (t *Tree) NumNodes() int {
	return t.nodes.len()
}

// ExpectedNodes is the node count of a full octree of the subdivided depth.
func (t *Tree) ExpectedNodes() int {
	return t.numNodes
}

func (t *Tree) Depth() int {
	return t.Space().GetMaxDepth()
}

func (t *Tree) Dimensions() mgl64.Vec3 {
	return t.Space().Box.Extent
}

// Corners returns the world space corners of the root.
func (t *Tree) Corners() [numCorners]mgl64.Vec3 {
	return t.worldBox(t.Space().Box).Corners()
}

// Bounds returns the world space box of the root.
func (t *Tree) Bounds() BoundingBox {
	return t.worldBox(t.Space().Box)
}

func (t *Tree) Contains(point mgl64.Vec3) bool {
	return t.Space().Contains(t.toLocal(point))
}

// Entities lists every entity added to the tree, in insertion order.
func (t *Tree) Entities() []Entity {
	return t.entities
}

// Stale reports whether the root is flagged as needing a rebuild.
func (t *Tree) Stale() bool {
	return !t.Space().Built
}

func (t *Tree) toLocal(point mgl64.Vec3) mgl64.Vec3 {
	return point.Sub(t.origin)
}

func (t *Tree) worldBox(b BoundingBox) BoundingBox {
	if t.origin == (mgl64.Vec3{}) {
		return b
	}
	return NewBoundingBox(b.Min.Add(t.origin), b.Max.Add(t.origin))
}

// localPosition follows the live entity position, offset by where the
// entity was placed when it was added.
func (t *Tree) localPosition(e Entity) mgl64.Vec3 {
	return t.toLocal(e.Position().Add(t.anchors[e.ID()]))
}

// Subdivide replaces the tree with a full octree of the given dimensions,
// centered on the origin, depth levels deep.
func (t *Tree) Subdivide(dimensions mgl64.Vec3, depth int) error {
	if t.algo != Octree {
		return unsupported("Subdivide", t.algo)
	}
	if depth < 0 {
		log.Panicf("negative subdivision depth %d", depth)
	}
	if dimensions == (mgl64.Vec3{}) {
		t.log.Warn("ignoring subdivision of zero dimensions")
		return nil
	}

	t.initialize(dimensions)
	t.entities = nil
	t.anchors = make(map[uuid.UUID]mgl64.Vec3)
	t.numNodes = NumNodesAtDepth(t.branching, depth)

	if err := t.strategy.subdivide(t, t.space, depth); err != nil {
		return fmt.Errorf("subdividing space: %w", err)
	}

	if t.nodes.len() != t.numNodes {
		log.Panicf("invalid number of nodes created : %d != %d", t.nodes.len(), t.numNodes)
	}
	t.metrics.setNodes(t.algo, t.nodes.len())

	t.log.WithFields(log.Fields{
		"depth":      depth,
		"nodes":      t.numNodes,
		"dimensions": dimensions,
	}).Debug("subdivided space")
	return nil
}

// SubdivideNode subdivides a single node depth more levels.
func (t *Tree) SubdivideNode(h Handle, depth int) error {
	if err := t.strategy.subdivide(t, h, depth); err != nil {
		return err
	}
	t.metrics.setNodes(t.algo, t.nodes.len())
	return nil
}

// SubdivideInDirection grows a chain of depth nodes below h toward one octant.
func (t *Tree) SubdivideInDirection(h Handle, direction Location, depth int) error {
	if err := t.strategy.subdivideInDirection(t, h, direction, depth); err != nil {
		return err
	}
	t.metrics.setNodes(t.algo, t.nodes.len())
	return nil
}

func (t *Tree) ExpandToInclude(point mgl64.Vec3) error {
	return t.strategy.expandToInclude(t, t.space, t.toLocal(point))
}

// AddEntity inserts e at a world position. Octrees grow to include the
// position first; BVHs only catalogue it until the next Rebuild.
func (t *Tree) AddEntity(e Entity, position mgl64.Vec3) error {
	if e == nil {
		log.Panic("attempting to add nil entity to tree")
	}

	local := t.toLocal(position)
	if t.algo == Octree {
		if err := t.strategy.expandToInclude(t, t.space, local); err != nil {
			return err
		}
		if space := t.Space(); !space.Contains(local) {
			log.Panicf("space %s does not contain point %v", space.Box, local)
		}
	}

	t.anchors[e.ID()] = position.Sub(e.Position())

	loc := LocationFromPoint(local, t.Space().Box.Center())
	if err := t.strategy.insert(t, t.space, e, local, loc); err != nil {
		return fmt.Errorf("inserting entity %s: %w", e.ID(), err)
	}

	t.entities = append(t.entities, e)
	t.metrics.entityAdded(t.algo)
	return nil
}

// AddScene inserts every entity of scene. Entity positions are taken as
// relative to position. A BVH is rebuilt once afterwards.
func (t *Tree) AddScene(scene Scene, position mgl64.Vec3) error {
	if scene == nil {
		log.Panic("scene is nil")
	}

	for _, e := range scene.Entities() {
		if err := t.AddEntity(e, position.Add(e.Position())); err != nil {
			return fmt.Errorf("adding scene %s: %w", scene.ID(), err)
		}
	}

	if t.algo == HLBVH {
		return t.Rebuild()
	}
	return nil
}

// Rebuild reconstructs a BVH from scratch over every entity on the root.
func (t *Tree) Rebuild() error {
	start := time.Now()
	if err := t.strategy.rebuild(t); err != nil {
		return err
	}

	t.metrics.rebuilt(t.algo, time.Since(start))
	t.metrics.setNodes(t.algo, t.nodes.len())
	return nil
}

// Update refits a BVH to the live entity positions and refreshes the
// Built flags. It is meant to run once per tick.
func (t *Tree) Update() error {
	return t.strategy.update(t, t.space)
}

func (t *Tree) NeedsRebuild() (bool, error) {
	return t.strategy.needsRebuild(t, t.space)
}

// GetContainingNode returns the smallest node holding a world point.
func (t *Tree) GetContainingNode(point mgl64.Vec3) (Handle, error) {
	local := t.toLocal(point)
	if local.ApproxEqualThreshold(mgl64.Vec3{}, Epsilon) && t.algo == Octree {
		return t.space, nil
	}
	return t.strategy.findNode(t, t.space, local)
}

func (t *Tree) FindNode(point mgl64.Vec3) (Handle, error) {
	return t.strategy.findNode(t, t.space, t.toLocal(point))
}

// FindNodeAt follows octant loc down at most atDepth levels.
func (t *Tree) FindNodeAt(loc Location, atDepth int) (Handle, error) {
	return t.strategy.findNodeAt(t, t.space, loc, atDepth)
}

// FindFurthestNode follows octant loc all the way down to a leaf.
func (t *Tree) FindFurthestNode(loc Location) (Handle, error) {
	return t.strategy.findFurthestNode(t, t.space, loc)
}

// TraverseNode collects the entities of every leaf under cur whose path
// passes test, plus those held by internal nodes on the way. Boxes are handed
// to test in world space.
func (t *Tree) TraverseNode(cur Handle, test HitTest) (hits []Entity) {
	n := t.Node(cur)
	if !test(t.worldBox(n.Box)) {
		return
	}

	if n.IsLeaf() {
		return append(hits, n.entities...)
	}

	hits = append(hits, n.held...)
	for _, c := range n.Children() {
		if c != NoHandle {
			hits = append(hits, t.TraverseNode(c, test)...)
		}
	}
	return
}

func (t *Tree) Traverse(test HitTest) []Entity {
	return t.TraverseNode(t.space, test)
}

// Query returns the entities held by leaves overlapping a world box.
func (t *Tree) Query(box BoundingBox) []Entity {
	return t.Traverse(box.Intersects)
}

// WalkBounds calls fn with the world box of every node down to maxDepth
// levels below the root. A negative maxDepth walks the whole tree.
func (t *Tree) WalkBounds(maxDepth int, fn func(h Handle, box BoundingBox, depth int)) {
	t.walkBounds(t.space, 0, maxDepth, fn)
}

func (t *Tree) walkBounds(h Handle, depth, maxDepth int, fn func(h Handle, box BoundingBox, depth int)) {
	n := t.Node(h)
	fn(h, t.worldBox(n.Box), depth)

	if maxDepth >= 0 && depth >= maxDepth {
		return
	}
	for _, c := range n.Children() {
		if c != NoHandle {
			t.walkBounds(c, depth+1, maxDepth, fn)
		}
	}
}

// EntityBounds calls fn once per tracked entity with its world fit box.
func (t *Tree) EntityBounds(fn func(e Entity, box BoundingBox)) {
	visited := make(map[uuid.UUID]struct{}, len(t.entities))
	t.entityBounds(t.space, visited, fn)
}

func (t *Tree) entityBounds(h Handle, visited map[uuid.UUID]struct{}, fn func(e Entity, box BoundingBox)) {
	n := t.Node(h)
	for _, e := range n.entities {
		if _, ok := visited[e.ID()]; ok {
			continue
		}
		visited[e.ID()] = struct{}{}
		fn(e, t.worldBox(FitBox(t.localPosition(e), e.Scale())))
	}

	for _, c := range n.Children() {
		if c != NoHandle {
			t.entityBounds(c, visited, fn)
		}
	}
}

// Print writes an indented dump of every node.
func (t *Tree) Print(w io.Writer) {
	fmt.Fprintf(w, "%s(@origin%v @nodes(%d) @depth(%d))\n", t.algo, t.origin, t.NumNodes(), t.Depth())
	t.Space().serialize(w, 0, true)
}
