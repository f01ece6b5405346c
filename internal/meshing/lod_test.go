package meshing

import (
	"testing"

	"voxstream/internal/world"
)

func TestLODStrideOneSingleCell(t *testing.T) {
	g := world.NewCellGrid(16)
	g.Set(3, 4, 5, world.CellSand)
	b := NewLODMesher().Generate(g, 1, true)
	if b.QuadCount() != 6 {
		t.Fatalf("got %d quads, want 6", b.QuadCount())
	}
}

func TestLODFootprintCollapses(t *testing.T) {
	g := world.NewCellGrid(16)
	g.Fill(0, 0, 0, 1, 1, 1, world.CellStone)
	b := NewLODMesher().Generate(g, 2, true)
	if b.QuadCount() != 6 {
		t.Fatalf("got %d quads, want 6", b.QuadCount())
	}
	for _, q := range splitQuads(b) {
		if q.area() != 4 {
			t.Fatalf("%v quad area %v, want 4", q.dir, q.area())
		}
	}
}

func TestLODUnmergedFaces(t *testing.T) {
	g := world.NewCellGrid(16)
	g.Fill(0, 0, 0, 3, 0, 0, world.CellStone)
	b := NewLODMesher().Generate(g, 1, true)
	// 4 cells in a row: 4 faces each on 4 sides, plus the two ends
	if b.QuadCount() != 18 {
		t.Fatalf("got %d quads, want 18", b.QuadCount())
	}
}

func TestLODTreesDropped(t *testing.T) {
	g := world.NewCellGrid(16)
	g.Fill(4, 4, 4, 5, 7, 5, world.CellLeaves)
	if b := NewLODMesher().Generate(g, 2, false); b != nil {
		t.Fatalf("expected nil without trees, got %d quads", b.QuadCount())
	}
	if b := NewLODMesher().Generate(g, 2, true); b.Empty() {
		t.Fatalf("expected leaves to be meshed with trees enabled")
	}
}

func TestLODStrideClampedToGrid(t *testing.T) {
	g := world.NewCellGrid(8)
	g.Set(0, 0, 0, world.CellDirt)
	b := NewLODMesher().Generate(g, 64, true)
	if b.QuadCount() != 6 {
		t.Fatalf("got %d quads, want 6", b.QuadCount())
	}
	for _, q := range splitQuads(b) {
		if q.area() != 64 {
			t.Fatalf("quad area %v, want 64", q.area())
		}
	}
}

func TestRepresentative(t *testing.T) {
	tests := []struct {
		name      string
		cells     []world.CellType
		withTrees bool
		want      world.CellType
	}{
		{"empty", nil, true, world.CellAir},
		{"majority", []world.CellType{world.CellDirt, world.CellDirt, world.CellDirt, world.CellStone, world.CellStone}, true, world.CellDirt},
		{"tie prefers lower", []world.CellType{world.CellDirt, world.CellDirt, world.CellStone, world.CellStone}, true, world.CellStone},
		{"water only", []world.CellType{world.CellWater, world.CellWater}, true, world.CellWater},
		{"opaque beats water", []world.CellType{world.CellWater, world.CellWater, world.CellWater, world.CellSand}, true, world.CellSand},
		{"trees dropped", []world.CellType{world.CellWood, world.CellLeaves, world.CellLeaves}, false, world.CellAir},
		{"trees kept", []world.CellType{world.CellWood, world.CellLeaves, world.CellLeaves}, true, world.CellLeaves},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := world.NewCellGrid(4)
			for i, c := range tt.cells {
				g.Set(i%2, (i/2)%2, i/4, c)
			}
			if got := representative(g, 0, 0, 0, 2, tt.withTrees); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
