package meshing

import (
	"testing"

	"voxstream/internal/world"
)

func TestAOSampleBounds(t *testing.T) {
	g := randomGrid(16, 99, 0.5)
	s := NewAOSampler(NewNeighborhood(g), 0.6)
	lo := 1 - s.Strength()
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				for _, d := range Directions {
					for i, f := range s.Sample(x, y, z, d) {
						if f < lo || f > 1 {
							t.Fatalf("(%d,%d,%d) %v corner %d: factor %v outside [%v, 1]", x, y, z, d, i, f, lo)
						}
					}
				}
			}
		}
	}
}

func TestAOUnoccludedCornersAreFullyLit(t *testing.T) {
	g := world.NewCellGrid(16)
	g.Set(5, 5, 5, world.CellStone)
	s := NewAOSampler(NewNeighborhood(g), 1)
	for _, d := range Directions {
		if got := s.Sample(5, 5, 5, d); got != [4]float32{1, 1, 1, 1} {
			t.Fatalf("%v: got %v, want all 1", d, got)
		}
	}
}

func TestAOBothSidesOpaque(t *testing.T) {
	// +Y face of (5,5,5): u is z, v is x. Corner 1 is (+u,-v).
	for _, withCorner := range []bool{false, true} {
		g := world.NewCellGrid(16)
		g.Set(5, 5, 5, world.CellStone)
		g.Set(5, 6, 6, world.CellStone)
		g.Set(4, 6, 5, world.CellStone)
		if withCorner {
			g.Set(4, 6, 6, world.CellStone)
		}
		s := NewAOSampler(NewNeighborhood(g), 0.75)
		got := s.Sample(5, 5, 5, PosY)
		if got[1] != 1-s.Strength() {
			t.Fatalf("corner=%v: got %v, want %v", withCorner, got[1], 1-s.Strength())
		}
	}
}

func TestAOSingleOccluder(t *testing.T) {
	g := world.NewCellGrid(16)
	g.Set(5, 5, 5, world.CellStone)
	g.Set(4, 6, 6, world.CellStone)
	s := NewAOSampler(NewNeighborhood(g), 0.9)
	got := s.Sample(5, 5, 5, PosY)
	want := 1 - s.Strength()*1/3
	if got[1] != want {
		t.Fatalf("got %v, want %v", got[1], want)
	}
	if got[0] != 1 || got[2] != 1 || got[3] != 1 {
		t.Fatalf("other corners should be unoccluded, got %v", got)
	}
}

func TestAOWaterDoesNotOcclude(t *testing.T) {
	g := world.NewCellGrid(16)
	g.Set(5, 5, 5, world.CellStone)
	g.Fill(4, 6, 4, 6, 6, 6, world.CellWater)
	s := NewAOSampler(NewNeighborhood(g), 1)
	if got := s.Sample(5, 5, 5, PosY); got != [4]float32{1, 1, 1, 1} {
		t.Fatalf("got %v, want all 1", got)
	}
}

func TestAOStrengthClamped(t *testing.T) {
	g := world.NewCellGrid(4)
	if s := NewAOSampler(NewNeighborhood(g), 3); s.Strength() != 1 {
		t.Fatalf("strength %v, want 1", s.Strength())
	}
	if s := NewAOSampler(NewNeighborhood(g), -1); s.Strength() != 0 {
		t.Fatalf("strength %v, want 0", s.Strength())
	}
}
