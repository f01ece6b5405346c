package meshing

import "github.com/go-gl/mathgl/mgl32"

// Direction is one of the six axis-aligned face normals.
type Direction uint8

const (
	PosX Direction = iota // east
	NegX                  // west
	PosY                  // top
	NegY                  // bottom
	PosZ                  // north
	NegZ                  // south
)

// Directions lists every face direction in emission order.
var Directions = [6]Direction{PosX, NegX, PosY, NegY, PosZ, NegZ}

// Axis returns the index (0=x, 1=y, 2=z) of the normal axis.
func (d Direction) Axis() int {
	return int(d) / 2
}

// Sign returns +1 or -1.
func (d Direction) Sign() int {
	if d%2 == 0 {
		return 1
	}
	return -1
}

// Tangents returns the two in-plane axes (u, v) such that (u, v, normal axis)
// is right-handed. Quads walked (0,0),(1,0),(1,1),(0,1) in (u, v) are
// counter-clockwise seen from the positive side.
func (d Direction) Tangents() (u, v int) {
	a := d.Axis()
	return (a + 1) % 3, (a + 2) % 3
}

// Step returns the unit offset one cell along the direction.
func (d Direction) Step() [3]int {
	var s [3]int
	s[d.Axis()] = d.Sign()
	return s
}

// Normal returns the outward unit normal.
func (d Direction) Normal() mgl32.Vec3 {
	var n mgl32.Vec3
	n[d.Axis()] = float32(d.Sign())
	return n
}

func (d Direction) String() string {
	switch d {
	case PosX:
		return "+x"
	case NegX:
		return "-x"
	case PosY:
		return "+y"
	case NegY:
		return "-y"
	case PosZ:
		return "+z"
	case NegZ:
		return "-z"
	}
	return "?"
}
