package world

import "fmt"

// CellGrid is the cubic cell array of one chunk, side length Size().
// A grid handed to a mesher must not be mutated afterwards; edits go
// through Clone.
type CellGrid struct {
	size  int
	cells []CellType
	solid int // non-air cell count
}

// NewCellGrid returns an all-air grid of side n.
func NewCellGrid(n int) *CellGrid {
	if n <= 0 {
		panic(fmt.Sprintf("world: invalid grid size %d", n))
	}
	return &CellGrid{
		size:  n,
		cells: make([]CellType, n*n*n),
	}
}

// Size returns the side length of the grid.
func (g *CellGrid) Size() int {
	return g.size
}

func (g *CellGrid) index(x, y, z int) int {
	return (y*g.size+z)*g.size + x
}

// InBounds reports whether local coordinates fall inside the grid.
func (g *CellGrid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size && z >= 0 && z < g.size
}

// Get returns the cell at local coordinates, Air when out of range.
func (g *CellGrid) Get(x, y, z int) CellType {
	if !g.InBounds(x, y, z) {
		return CellAir
	}
	return g.cells[g.index(x, y, z)]
}

// Set writes the cell at local coordinates. Out of range writes are ignored.
func (g *CellGrid) Set(x, y, z int, t CellType) {
	if !g.InBounds(x, y, z) {
		return
	}
	i := g.index(x, y, z)
	old := g.cells[i]
	if old == t {
		return
	}
	if old == CellAir {
		g.solid++
	} else if t == CellAir {
		g.solid--
	}
	g.cells[i] = t
}

// IsOpaque reports whether the cell at local coordinates is opaque.
func (g *CellGrid) IsOpaque(x, y, z int) bool {
	return g.Get(x, y, z).IsOpaque()
}

// IsEmpty reports whether every cell is air.
func (g *CellGrid) IsEmpty() bool {
	return g.solid == 0
}

// SolidCount returns the number of non-air cells.
func (g *CellGrid) SolidCount() int {
	return g.solid
}

// Clone returns an independent copy of the grid.
func (g *CellGrid) Clone() *CellGrid {
	c := &CellGrid{
		size:  g.size,
		cells: make([]CellType, len(g.cells)),
		solid: g.solid,
	}
	copy(c.cells, g.cells)
	return c
}

// Fill sets every cell in the inclusive local box to t.
func (g *CellGrid) Fill(x0, y0, z0, x1, y1, z1 int, t CellType) {
	for y := max(y0, 0); y <= min(y1, g.size-1); y++ {
		for z := max(z0, 0); z <= min(z1, g.size-1); z++ {
			for x := max(x0, 0); x <= min(x1, g.size-1); x++ {
				g.Set(x, y, z, t)
			}
		}
	}
}
