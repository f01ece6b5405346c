package meshing

import "voxstream/internal/world"

// VisibilityOracle resolves cells around a chunk being meshed. Coordinates
// are local to the center chunk and may reach one chunk past any border.
// known is false when no data is loaded there.
type VisibilityOracle interface {
	Cell(x, y, z int) (t world.CellType, known bool)
}

// opaqueAt treats unknown cells as see-through, so chunk borders without
// neighbor data are drawn.
func opaqueAt(o VisibilityOracle, x, y, z int) bool {
	t, ok := o.Cell(x, y, z)
	return ok && t.IsOpaque()
}

// NeighborOffsets lists the 26 chunk offsets surrounding a chunk.
var NeighborOffsets = func() [][3]int {
	out := make([][3]int, 0, 26)
	for dy := -1; dy <= 1; dy++ {
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				out = append(out, [3]int{dx, dy, dz})
			}
		}
	}
	return out
}()

// Neighborhood is a 3x3x3 block of grid references centered on the chunk
// being meshed. It holds references only; grids are immutable once shared.
type Neighborhood struct {
	size  int
	grids [27]*world.CellGrid
}

func slot(dx, dy, dz int) int {
	return (dx + 1) + (dy+1)*3 + (dz+1)*9
}

// NewNeighborhood wraps center with no neighbor data.
func NewNeighborhood(center *world.CellGrid) *Neighborhood {
	n := &Neighborhood{size: center.Size()}
	n.grids[slot(0, 0, 0)] = center
	return n
}

// SetNeighbor attaches the grid at chunk offset (dx, dy, dz). Grids of a
// different size are ignored.
func (n *Neighborhood) SetNeighbor(dx, dy, dz int, g *world.CellGrid) {
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || dz < -1 || dz > 1 {
		return
	}
	if g != nil && g.Size() != n.size {
		return
	}
	n.grids[slot(dx, dy, dz)] = g
}

// Center returns the grid being meshed.
func (n *Neighborhood) Center() *world.CellGrid {
	return n.grids[slot(0, 0, 0)]
}

// NeighborCount returns how many of the 26 neighbors are attached.
func (n *Neighborhood) NeighborCount() int {
	c := 0
	for i, g := range n.grids {
		if g != nil && i != slot(0, 0, 0) {
			c++
		}
	}
	return c
}

func (n *Neighborhood) split(p int) (chunk, local int, ok bool) {
	switch {
	case p < -n.size || p >= 2*n.size:
		return 0, 0, false
	case p < 0:
		return -1, p + n.size, true
	case p >= n.size:
		return 1, p - n.size, true
	}
	return 0, p, true
}

// Cell implements VisibilityOracle.
func (n *Neighborhood) Cell(x, y, z int) (world.CellType, bool) {
	dx, lx, ok := n.split(x)
	if !ok {
		return world.CellAir, false
	}
	dy, ly, ok := n.split(y)
	if !ok {
		return world.CellAir, false
	}
	dz, lz, ok := n.split(z)
	if !ok {
		return world.CellAir, false
	}
	g := n.grids[slot(dx, dy, dz)]
	if g == nil {
		return world.CellAir, false
	}
	return g.Get(lx, ly, lz), true
}
