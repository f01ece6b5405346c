package meshing

import (
	"voxstream/internal/logging"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// GreedyMesher merges coplanar faces of equal cell type into maximal
// rectangles, one 2D pass per slice and face direction.
type GreedyMesher struct {
	AmbientOcclusion bool
	AOStrength       float32
	// MaxVertices caps the batch; zero means the full uint16 index range.
	MaxVertices int
}

// NewGreedyMesher returns a mesher with the given AO settings.
func NewGreedyMesher(ambientOcclusion bool, strength float32) *GreedyMesher {
	return &GreedyMesher{
		AmbientOcclusion: ambientOcclusion,
		AOStrength:       strength,
		MaxVertices:      MaxIndexedVertices,
	}
}

// Generate builds the chunk mesh. oracle resolves cells past the chunk
// border; nil means no neighbor data. It returns nil when no face is visible.
func (m *GreedyMesher) Generate(grid *world.CellGrid, oracle VisibilityOracle) *MeshBatch {
	if grid == nil || grid.IsEmpty() {
		return nil
	}
	if oracle == nil {
		oracle = NewNeighborhood(grid)
	}
	var ao *AOSampler
	if m.AmbientOcclusion {
		ao = NewAOSampler(oracle, m.AOStrength)
	}

	b := newMeshBatch(m.MaxVertices)
	g := greedyPass{
		grid:      grid,
		oracle:    oracle,
		ao:        ao,
		batch:     b,
		processed: make([]bool, grid.Size()*grid.Size()),
	}
	for _, dir := range Directions {
		if !g.direction(dir) {
			logging.Debug("greedy mesh truncated at %d vertices", len(b.Vertices))
			break
		}
	}
	if b.Empty() {
		return nil
	}
	return b
}

type greedyPass struct {
	grid      *world.CellGrid
	oracle    VisibilityOracle
	ao        *AOSampler
	batch     *MeshBatch
	processed []bool
}

// cell maps (main, a, b) slice coordinates to a cell position.
func cellPos(axis, u, v, main, a, b int) [3]int {
	var p [3]int
	p[axis] = main
	p[u] = a
	p[v] = b
	return p
}

// faceVisible reports whether the face of cell p along dir is exposed: the
// neighbor is see-through and not the same see-through type.
func (g *greedyPass) faceVisible(p [3]int, t world.CellType, dir Direction) bool {
	s := dir.Step()
	nx, ny, nz := p[0]+s[0], p[1]+s[1], p[2]+s[2]
	var nt world.CellType
	if g.grid.InBounds(nx, ny, nz) {
		nt = g.grid.Get(nx, ny, nz)
	} else {
		var known bool
		nt, known = g.oracle.Cell(nx, ny, nz)
		if !known {
			return true
		}
	}
	return !nt.IsOpaque() && nt != t
}

// direction meshes every slice for one face direction. It returns false once
// the batch is full.
func (g *greedyPass) direction(dir Direction) bool {
	n := g.grid.Size()
	axis := dir.Axis()
	u, v := dir.Tangents()

	// candidate reports whether slice cell (a, b) can join a rectangle of type t.
	candidate := func(main, a, b int, t world.CellType) bool {
		if g.processed[b*n+a] {
			return false
		}
		p := cellPos(axis, u, v, main, a, b)
		if g.grid.Get(p[0], p[1], p[2]) != t {
			return false
		}
		return g.faceVisible(p, t, dir)
	}

	for main := 0; main < n; main++ {
		clear(g.processed)
		for b := 0; b < n; b++ {
			for a := 0; a < n; a++ {
				if g.processed[b*n+a] {
					continue
				}
				p := cellPos(axis, u, v, main, a, b)
				t := g.grid.Get(p[0], p[1], p[2])
				if t == world.CellAir || !g.faceVisible(p, t, dir) {
					continue
				}

				width := 1
				for a+width < n && candidate(main, a+width, b, t) {
					width++
				}

				height := 1
			grow:
				for b+height < n {
					for da := 0; da < width; da++ {
						if !candidate(main, a+da, b+height, t) {
							break grow
						}
					}
					height++
				}

				for hb := b; hb < b+height; hb++ {
					for wa := a; wa < a+width; wa++ {
						g.processed[hb*n+wa] = true
					}
				}

				if !g.emit(dir, p, t, width, height) {
					return false
				}
			}
		}
	}
	return true
}

// emit appends the quad covering a width x height rectangle whose origin
// cell is p. AO is sampled at the origin cell only and applied to all four
// corners of the merged rectangle.
func (g *greedyPass) emit(dir Direction, p [3]int, t world.CellType, width, height int) bool {
	u, v := dir.Tangents()
	lo := p
	hi := [3]int{p[0] + 1, p[1] + 1, p[2] + 1}
	hi[u] = p[u] + width
	hi[v] = p[v] + height

	corners, aoIndex := faceCorners(dir, lo, hi)
	base := t.Color()
	colors := [4]mgl32.Vec3{base, base, base, base}
	flip := false

	if g.ao != nil {
		samples := g.ao.Sample(p[0], p[1], p[2], dir)
		var occ [4]float32
		for i := range colors {
			f := samples[aoIndex[i]]
			colors[i] = base.Mul(f)
			occ[i] = 1 - f
		}
		// Pair the darker opposite corners on the shared diagonal.
		flip = occ[1]+occ[3] > occ[0]+occ[2]
	}

	return g.batch.appendQuad(corners, dir.Normal(), colors, flip)
}
