package spacetree

import (
	log "github.com/sirupsen/logrus"
)

// Handle indexes a node inside the arena of the tree that created it.
type Handle int

// NoHandle marks an absent parent or child.
const NoHandle Handle = -1

const chunkSize = 64

// arena hands out nodes in fixed size chunks. A chunk is never reallocated,
// so growing the arena does not move nodes that already exist.
type arena struct {
	chunks [][]Node
	size   int
}

func (a *arena) alloc() (Handle, *Node) {
	if a.size == len(a.chunks)*chunkSize {
		a.chunks = append(a.chunks, make([]Node, chunkSize))
	}

	h := Handle(a.size)
	a.size++

	n := a.at(h)
	*n = Node{
		Index:          h,
		Parent:         NoHandle,
		PartitionIndex: -1,
	}
	for i := range n.children {
		n.children[i] = NoHandle
	}
	return h, n
}

func (a *arena) at(h Handle) *Node {
	if h < 0 || int(h) >= a.size {
		log.Panicf("node handle %d out of range [0, %d)", h, a.size)
	}
	return &a.chunks[int(h)/chunkSize][int(h)%chunkSize]
}

func (a *arena) len() int {
	return a.size
}

// reset drops every node. Old chunks are released rather than reused so a
// stale *Node held by a caller cannot observe a new node.
func (a *arena) reset() {
	a.chunks = nil
	a.size = 0
}
