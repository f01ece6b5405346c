package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCellOpacity(t *testing.T) {
	if CellAir.IsOpaque() || CellWater.IsOpaque() {
		t.Fatalf("air and water must not be opaque")
	}
	for _, c := range []CellType{CellStone, CellDirt, CellGrass, CellSand, CellWood, CellLeaves, CellSnow, CellBedrock} {
		if !c.IsOpaque() {
			t.Errorf("%v should be opaque", c)
		}
	}
}

func TestGridGetSetAndBounds(t *testing.T) {
	g := NewCellGrid(16)
	g.Set(1, 2, 3, CellStone)
	if got := g.Get(1, 2, 3); got != CellStone {
		t.Fatalf("got %v, want stone", got)
	}
	if got := g.Get(-1, 0, 0); got != CellAir {
		t.Fatalf("out of range read should be air, got %v", got)
	}
	g.Set(16, 0, 0, CellStone) // ignored
	if g.SolidCount() != 1 {
		t.Fatalf("solid count %d, want 1", g.SolidCount())
	}
	g.Set(1, 2, 3, CellAir)
	if !g.IsEmpty() {
		t.Fatalf("grid should be empty after clearing")
	}
}

func TestGridCloneIsIndependent(t *testing.T) {
	g := NewCellGrid(8)
	g.Fill(0, 0, 0, 7, 0, 7, CellDirt)
	c := g.Clone()
	c.Set(0, 0, 0, CellAir)
	if g.Get(0, 0, 0) != CellDirt {
		t.Fatalf("clone write leaked into the original")
	}
	if c.SolidCount() != 63 || g.SolidCount() != 64 {
		t.Fatalf("solid counts clone=%d orig=%d", c.SolidCount(), g.SolidCount())
	}
}

func TestChunkCoordFloors(t *testing.T) {
	tests := []struct {
		pos  mgl32.Vec3
		want ChunkCoord
	}{
		{mgl32.Vec3{0, 0, 0}, ChunkCoord{0, 0, 0}},
		{mgl32.Vec3{15.9, 16, 31}, ChunkCoord{0, 1, 1}},
		{mgl32.Vec3{-0.1, -16, -17}, ChunkCoord{-1, -1, -2}},
	}
	for _, tt := range tests {
		if got := ChunkCoordFromWorld(tt.pos, 16); got != tt.want {
			t.Errorf("ChunkCoordFromWorld(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}

	c, lx, ly, lz := ChunkCoordFromCell(-1, 17, 5, 16)
	if c != (ChunkCoord{-1, 1, 0}) || lx != 15 || ly != 1 || lz != 5 {
		t.Fatalf("ChunkCoordFromCell = %v (%d,%d,%d)", c, lx, ly, lz)
	}
}
