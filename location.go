package spacetree

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
)

// Location is a 3 bit octant code. A set bit means the point is on the
// negative side of the reference center along that axis.
type Location uint8

const (
	NegativeXBit Location = 0b100
	NegativeYBit Location = 0b010
	NegativeZBit Location = 0b001
)

// +z group, counter clockwise from the all positive octant
const (
	PxPyPz Location = 0b000
	NxPyPz Location = 0b100
	NxNyPz Location = 0b110
	PxNyPz Location = 0b010
)

// -z group, counter clockwise
const (
	PxPyNz Location = 0b001
	NxPyNz Location = 0b101
	NxNyNz Location = 0b111
	PxNyNz Location = 0b011
)

const numOctants = 8

// OctantLocations maps a child slot to the octant it covers.
var OctantLocations = [numOctants]Location{
	PxPyPz,
	NxPyPz,
	NxNyPz,
	PxNyPz,

	PxPyNz,
	NxPyNz,
	NxNyNz,
	PxNyNz,
}

// indexed by Location
var locationIndex = [numOctants]int{
	PxPyPz: 0,
	NxPyPz: 1,
	NxNyPz: 2,
	PxNyPz: 3,

	PxPyNz: 4,
	NxPyNz: 5,
	NxNyNz: 6,
	PxNyNz: 7,
}

// indexed by Location
var oppositeOctant = [numOctants]Location{
	PxPyPz: NxNyNz,
	NxPyPz: PxNyNz,
	NxNyPz: PxPyNz,
	PxNyPz: NxPyNz,

	PxPyNz: NxNyPz,
	NxPyNz: PxNyPz,
	NxNyNz: PxPyPz,
	PxNyNz: NxPyPz,
}

func (l Location) Valid() bool {
	return l < numOctants
}

func (l Location) String() string {
	return fmt.Sprintf("%03b", uint8(l))
}

func mustValid(l Location) {
	if !l.Valid() {
		log.Panicf("invalid location : %s", l)
	}
}

// LocationIndex returns the child slot holding octant l.
func LocationIndex(l Location) int {
	mustValid(l)
	return locationIndex[l]
}

func OppositeOctant(l Location) Location {
	mustValid(l)
	return oppositeOctant[l]
}

// LocationFromPoint encodes the side of center that point falls on per axis.
func LocationFromPoint(point, center mgl64.Vec3) Location {
	var l Location
	if point[0] < center[0] {
		l |= NegativeXBit
	}
	if point[1] < center[1] {
		l |= NegativeYBit
	}
	if point[2] < center[2] {
		l |= NegativeZBit
	}
	return l
}

// LocationFromPointIn first moves point into the local space of a box with the
// given center and dimensions, whose min corner becomes the origin.
func LocationFromPointIn(point, center, dimensions mgl64.Vec3) Location {
	translated := point.Sub(center.Sub(dimensions.Mul(0.5)))
	return LocationFromPoint(translated, mgl64.Vec3{})
}
