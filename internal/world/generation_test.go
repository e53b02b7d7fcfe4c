package world

import "testing"

func TestGenerate_DeterministicForSeed(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)

	if !a.Equal(b) {
		t.Fatalf("same seed produced different grids")
	}
	if a.Width() != cfg.Width || a.Height() != cfg.Height {
		t.Fatalf("size=%dx%d want=%dx%d", a.Width(), a.Height(), cfg.Width, cfg.Height)
	}
}

func TestGenerate_HeightsWithinRange(t *testing.T) {
	cfg := SmallTestConfig()
	g := Generate(cfg)
	for i, tile := range g.Tiles() {
		if tile.Height < 0 || float64(tile.Height) > cfg.MountainHeight {
			t.Fatalf("tile %d height=%v outside [0,%v]", i, tile.Height, cfg.MountainHeight)
		}
		if tile.Terrain != TerrainForHeight(tile.Height) {
			t.Fatalf("tile %d terrain=%v does not match height %v", i, tile.Terrain, tile.Height)
		}
	}
}

func TestGenerateTrees_RespectsTreeLine(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.TreeDensity = 1.1 // Every eligible cell.
	heights := make([]float32, cfg.Width*cfg.Height)
	heights[0] = float32(cfg.MountainHeight) // Above the tree line.

	trees := GenerateTrees(cfg, 7, heights)
	if trees[0] {
		t.Fatalf("tree placed above the tree line")
	}
	if !trees[1] {
		t.Fatalf("eligible cell left bare with density > 1")
	}
}

func TestPlaceSites_FlatMap(t *testing.T) {
	g := NewGrid(20, 20)
	for x := 0; x < 20; x++ {
		g.SetTileHeight(x, 19, 15)
	}

	s, ok := PlaceSites(g, 1)
	if !ok {
		t.Fatalf("no sites found")
	}
	cells := []Cell{s.Entrance, s.ParkingLot, s.Lodge, s.LiftBottom, s.LiftTop}
	seen := make(map[Cell]bool)
	for _, c := range cells {
		if !g.Contains(c) {
			t.Fatalf("site %v out of bounds", c)
		}
		if seen[c] {
			t.Fatalf("site %v used twice: %+v", c, s)
		}
		seen[c] = true
	}
	if g.TileAt(s.LiftTop).Height <= g.TileAt(s.LiftBottom).Height {
		t.Fatalf("lift top %v not above bottom %v", s.LiftTop, s.LiftBottom)
	}
	if s.Name == "" {
		t.Fatalf("resort name missing")
	}
}

func TestPlaceSites_TinyGrid(t *testing.T) {
	if _, ok := PlaceSites(NewGrid(1, 2), 1); ok {
		t.Fatalf("expected a 1x2 grid to be too small")
	}
}
