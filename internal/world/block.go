package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CellType identifies what occupies one cell of a chunk.
type CellType uint8

const (
	CellAir CellType = iota
	CellStone
	CellDirt
	CellGrass
	CellSand
	CellWater
	CellWood
	CellLeaves
	CellSnow
	CellBedrock

	cellTypeCount
)

var cellNames = [cellTypeCount]string{
	CellAir:     "air",
	CellStone:   "stone",
	CellDirt:    "dirt",
	CellGrass:   "grass",
	CellSand:    "sand",
	CellWater:   "water",
	CellWood:    "wood",
	CellLeaves:  "leaves",
	CellSnow:    "snow",
	CellBedrock: "bedrock",
}

// Base vertex colors per cell type
var cellColors = [cellTypeCount]mgl32.Vec3{
	CellAir:     {0, 0, 0},
	CellStone:   {0.50, 0.50, 0.52},
	CellDirt:    {0.47, 0.33, 0.21},
	CellGrass:   {0.33, 0.62, 0.24},
	CellSand:    {0.86, 0.80, 0.55},
	CellWater:   {0.20, 0.38, 0.78},
	CellWood:    {0.40, 0.28, 0.15},
	CellLeaves:  {0.20, 0.48, 0.16},
	CellSnow:    {0.95, 0.96, 0.98},
	CellBedrock: {0.20, 0.20, 0.22},
}

// IsOpaque reports whether the cell hides the faces of its neighbors.
// Air and water are the only see-through types.
func (t CellType) IsOpaque() bool {
	return t != CellAir && t != CellWater && t < cellTypeCount
}

// IsTree reports whether the cell is part of a tree decoration.
func (t CellType) IsTree() bool {
	return t == CellWood || t == CellLeaves
}

// Color returns the base vertex color for the type.
func (t CellType) Color() mgl32.Vec3 {
	if t >= cellTypeCount {
		return mgl32.Vec3{1, 0, 1}
	}
	return cellColors[t]
}

func (t CellType) String() string {
	if t >= cellTypeCount {
		return "unknown"
	}
	return cellNames[t]
}
