package meshing

import (
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// LODMesher emits one unmerged quad per visible face of each cell, or of
// each stride^3 footprint when stride > 1. It trades triangle count for a
// single cheap pass, which suits background refinement of distant chunks.
type LODMesher struct {
	// MaxVertices caps the batch; zero means the full uint16 index range.
	MaxVertices int
}

// NewLODMesher returns a mesher using the full index range.
func NewLODMesher() *LODMesher {
	return &LODMesher{MaxVertices: MaxIndexedVertices}
}

// Generate builds a coarse mesh of grid. With withTrees false, wood and
// leaves are read as air. It returns nil when nothing is visible.
func (m *LODMesher) Generate(grid *world.CellGrid, stride int, withTrees bool) *MeshBatch {
	if grid == nil || grid.IsEmpty() {
		return nil
	}
	if stride < 1 {
		stride = 1
	}
	n := grid.Size()
	if stride > n {
		stride = n
	}
	fn := (n + stride - 1) / stride

	reps := make([]world.CellType, fn*fn*fn)
	at := func(fx, fy, fz int) world.CellType {
		if fx < 0 || fx >= fn || fy < 0 || fy >= fn || fz < 0 || fz >= fn {
			return world.CellAir
		}
		return reps[(fy*fn+fz)*fn+fx]
	}
	for fy := 0; fy < fn; fy++ {
		for fz := 0; fz < fn; fz++ {
			for fx := 0; fx < fn; fx++ {
				reps[(fy*fn+fz)*fn+fx] = representative(grid, fx*stride, fy*stride, fz*stride, stride, withTrees)
			}
		}
	}

	b := newMeshBatch(m.MaxVertices)
	for fy := 0; fy < fn; fy++ {
		for fz := 0; fz < fn; fz++ {
			for fx := 0; fx < fn; fx++ {
				t := at(fx, fy, fz)
				if t == world.CellAir {
					continue
				}
				lo := [3]int{fx * stride, fy * stride, fz * stride}
				hi := [3]int{min(lo[0]+stride, n), min(lo[1]+stride, n), min(lo[2]+stride, n)}
				c := t.Color()
				colors := [4]mgl32.Vec3{c, c, c, c}

				for _, dir := range Directions {
					s := dir.Step()
					nt := at(fx+s[0], fy+s[1], fz+s[2])
					if nt.IsOpaque() || nt == t {
						continue
					}
					corners, _ := faceCorners(dir, lo, hi)
					if !b.appendQuad(corners, dir.Normal(), colors, false) {
						return finish(b)
					}
				}
			}
		}
	}
	return finish(b)
}

func finish(b *MeshBatch) *MeshBatch {
	if b.Empty() {
		return nil
	}
	return b
}

// representative picks the footprint's type: the most common opaque type,
// else water if any is present, else air. Ties go to the lower type value.
func representative(grid *world.CellGrid, x0, y0, z0, stride int, withTrees bool) world.CellType {
	if stride == 1 {
		t := grid.Get(x0, y0, z0)
		if !withTrees && t.IsTree() {
			return world.CellAir
		}
		return t
	}

	var counts [256]int
	water := false
	for y := y0; y < y0+stride; y++ {
		for z := z0; z < z0+stride; z++ {
			for x := x0; x < x0+stride; x++ {
				t := grid.Get(x, y, z)
				if !withTrees && t.IsTree() {
					continue
				}
				if t == world.CellWater {
					water = true
				}
				if t.IsOpaque() {
					counts[t]++
				}
			}
		}
	}
	best, bestCount := world.CellAir, 0
	for t, c := range counts {
		if c > bestCount {
			best, bestCount = world.CellType(t), c
		}
	}
	if bestCount > 0 {
		return best
	}
	if water {
		return world.CellWater
	}
	return world.CellAir
}
