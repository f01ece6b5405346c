package world

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Synthesizer produces the cells of one chunk. Implementations must be a
// pure function of (coord, size, level) for a fixed seed and safe for
// concurrent use.
type Synthesizer interface {
	GenerateRegion(coord ChunkCoord, size, level int) (*CellGrid, error)
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(coord ChunkCoord, size, level int) (*CellGrid, error)

// GenerateRegion calls f.
func (f SynthesizerFunc) GenerateRegion(coord ChunkCoord, size, level int) (*CellGrid, error) {
	return f(coord, size, level)
}

// GeneratorSettings tunes the reference terrain.
type GeneratorSettings struct {
	Seed         int64
	BaseHeight   int
	Amplitude    float64
	Scale        float64
	Octaves      int
	Persistence  float64
	Lacunarity   float64
	SeaLevel     int
	SnowLine     int
	TreeMaxLevel int // trees are only placed for detail levels <= this
}

// DefaultGeneratorSettings returns the settings used when none are configured.
func DefaultGeneratorSettings(seed int64) GeneratorSettings {
	return GeneratorSettings{
		Seed:         seed,
		BaseHeight:   32,
		Amplitude:    24,
		Scale:        1.0 / 96.0,
		Octaves:      4,
		Persistence:  0.5,
		Lacunarity:   2.0,
		SeaLevel:     28,
		SnowLine:     50,
		TreeMaxLevel: 1,
	}
}

// Generator is the reference heightmap terrain: simplex heights, perlin
// moisture picking sand/grass, and hashed tree placement.
type Generator struct {
	s        GeneratorSettings
	height   opensimplex.Noise
	moisture *perlin.Perlin
}

// NewGenerator creates a deterministic generator for the given settings.
func NewGenerator(s GeneratorSettings) *Generator {
	if s.Octaves <= 0 {
		s.Octaves = 1
	}
	return &Generator{
		s:        s,
		height:   opensimplex.New(s.Seed),
		moisture: perlin.NewPerlin(2, 2, 3, s.Seed^0x5DEECE66D),
	}
}

// HeightAt computes the surface height (cell Y) at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	x := float64(worldX) * g.s.Scale
	z := float64(worldZ) * g.s.Scale
	amplitude := 1.0
	frequency := 1.0
	sum, norm := 0.0, 0.0
	for range g.s.Octaves {
		sum += g.height.Eval2(x*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= g.s.Persistence
		frequency *= g.s.Lacunarity
	}
	h := float64(g.s.BaseHeight) + (sum/norm)*g.s.Amplitude
	if h < 1 {
		h = 1
	}
	return int(math.Floor(h))
}

// MoistureAt returns a [0,1] moisture value used for surface selection.
func (g *Generator) MoistureAt(worldX, worldZ int) float64 {
	n := g.moisture.Noise2D(float64(worldX)/128.0, float64(worldZ)/128.0)
	m := (n + 1) / 2
	return math.Max(0, math.Min(1, m))
}

func (g *Generator) surfaceAt(h int, moisture float64) CellType {
	switch {
	case h <= g.s.SeaLevel+1:
		return CellSand
	case h >= g.s.SnowLine:
		return CellSnow
	case moisture < 0.3:
		return CellSand
	default:
		return CellGrass
	}
}

// GenerateRegion fills one chunk. The level only decides whether trees are
// decorated; terrain is identical at every level so tiers line up.
func (g *Generator) GenerateRegion(coord ChunkCoord, size, level int) (*CellGrid, error) {
	grid := NewCellGrid(size)
	baseX, baseY, baseZ := coord.X*size, coord.Y*size, coord.Z*size

	for lz := range size {
		for lx := range size {
			wx, wz := baseX+lx, baseZ+lz
			h := g.HeightAt(wx, wz)
			top := g.surfaceAt(h, g.MoistureAt(wx, wz))
			under := CellDirt
			if top == CellSand {
				under = CellSand
			}
			for ly := range size {
				wy := baseY + ly
				var t CellType
				switch {
				case wy == 0:
					t = CellBedrock
				case wy < h-3:
					t = CellStone
				case wy < h:
					t = under
				case wy == h:
					t = top
				case wy <= g.s.SeaLevel:
					t = CellWater
				default:
					continue
				}
				grid.Set(lx, ly, lz, t)
			}
		}
	}

	if level <= g.s.TreeMaxLevel {
		g.decorateTrees(grid, baseX, baseY, baseZ)
	}
	return grid, nil
}

const treeReach = 2 // leaf crown radius

// decorateTrees writes every tree whose trunk or crown overlaps the chunk,
// including trees rooted in neighboring columns, so borders agree.
func (g *Generator) decorateTrees(grid *CellGrid, baseX, baseY, baseZ int) {
	size := grid.Size()
	for wz := baseZ - treeReach; wz < baseZ+size+treeReach; wz++ {
		for wx := baseX - treeReach; wx < baseX+size+treeReach; wx++ {
			hash := columnHash(int64(wx), int64(wz), g.s.Seed)
			if hash%89 != 0 {
				continue
			}
			h := g.HeightAt(wx, wz)
			if g.surfaceAt(h, g.MoistureAt(wx, wz)) != CellGrass {
				continue
			}
			trunk := 4 + int((hash>>8)%3)
			topY := h + trunk

			for dy := -1; dy <= 1; dy++ {
				for dz := -treeReach; dz <= treeReach; dz++ {
					for dx := -treeReach; dx <= treeReach; dx++ {
						if abs(dx) == treeReach && abs(dz) == treeReach {
							continue
						}
						lx, ly, lz := wx+dx-baseX, topY+dy-baseY, wz+dz-baseZ
						if grid.InBounds(lx, ly, lz) && grid.Get(lx, ly, lz) == CellAir {
							grid.Set(lx, ly, lz, CellLeaves)
						}
					}
				}
			}
			grid.Set(wx-baseX, topY+2-baseY, wz-baseZ, CellLeaves)
			for y := h + 1; y <= topY; y++ {
				grid.Set(wx-baseX, y-baseY, wz-baseZ, CellWood)
			}
		}
	}
}

// FlatGenerator builds a flat world: bedrock at y=0, stone, then a grass
// surface at a fixed height.
type FlatGenerator struct {
	Height int
}

// NewFlatGenerator returns a flat generator with its surface at height.
func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{Height: height}
}

// GenerateRegion implements Synthesizer.
func (f *FlatGenerator) GenerateRegion(coord ChunkCoord, size, level int) (*CellGrid, error) {
	grid := NewCellGrid(size)
	baseY := coord.Y * size
	for ly := range size {
		wy := baseY + ly
		var t CellType
		switch {
		case wy == 0:
			t = CellBedrock
		case wy < f.Height:
			t = CellStone
		case wy == f.Height:
			t = CellGrass
		default:
			continue
		}
		grid.Fill(0, ly, 0, size-1, ly, size-1, t)
	}
	return grid, nil
}

// columnHash is a SplitMix64 style integer hash, stable across runs.
func columnHash(x, z, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
