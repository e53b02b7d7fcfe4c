package world

import (
	"fmt"
	"log/slog"

	"github.com/talgya/ski-resort/internal/event"
)

// Grid holds the complete tile state of a resort map.
// Tiles are only mutated through Grid methods so change events always fire.
type Grid struct {
	width  int
	height int
	tiles  []Tile

	guests *GuestCounter

	// Fired synchronously after each successful terrain or structure edit.
	OnMapChange event.Listeners[struct{}]
	// Fired when trees are added or removed.
	OnFoliageChange event.Listeners[struct{}]
}

// NewGrid creates a flat, empty grass grid. Non-positive dimensions yield
// an empty grid on which every coordinate is out of bounds.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		width:  width,
		height: height,
		tiles:  make([]Tile, width*height),
		guests: &GuestCounter{},
	}
}

// LoadTiles rebuilds a grid from a row-major tile slice.
func LoadTiles(width, height int, tiles []Tile) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	if len(tiles) != width*height {
		return nil, fmt.Errorf("tile count %d does not match %dx%d", len(tiles), width, height)
	}
	g := NewGrid(width, height)
	copy(g.tiles, tiles)
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.tiles) }

// Guests returns the guest counter owned by this grid.
func (g *Grid) Guests() *GuestCounter { return g.guests }

// InBounds returns true if (x, z) lies on the grid.
func (g *Grid) InBounds(x, z int) bool {
	return x >= 0 && x < g.width && z >= 0 && z < g.height
}

// Contains is InBounds for a Cell.
func (g *Grid) Contains(c Cell) bool {
	return g.InBounds(c.X, c.Z)
}

// Index returns the row-major index of (x, z). Callers must check bounds.
func (g *Grid) Index(x, z int) int {
	return x + z*g.width
}

// CellAt returns the cell for a row-major index.
func (g *Grid) CellAt(i int) Cell {
	return Cell{X: i % g.width, Z: i / g.width}
}

// Tile returns the tile at (x, z), or the zero Tile if out of bounds.
func (g *Grid) Tile(x, z int) Tile {
	if !g.InBounds(x, z) {
		return Tile{}
	}
	return g.tiles[g.Index(x, z)]
}

// TileAt is Tile for a Cell.
func (g *Grid) TileAt(c Cell) Tile {
	return g.Tile(c.X, c.Z)
}

// HeightAt returns the height of the tile under a world position.
func (g *Grid) HeightAt(p Vec3) float32 {
	return g.TileAt(WorldToGrid(p)).Height
}

// SetTileHeight sets the height at (x, z) and derives terrain from the snow line.
func (g *Grid) SetTileHeight(x, z int, h float32) bool {
	if !g.InBounds(x, z) {
		return false
	}
	t := &g.tiles[g.Index(x, z)]
	t.Height = h
	t.Terrain = TerrainForHeight(h)
	g.OnMapChange.Emit(struct{}{})
	return true
}

// SetTileType sets the terrain at (x, z) explicitly.
func (g *Grid) SetTileType(x, z int, terrain Terrain) bool {
	if !g.InBounds(x, z) {
		return false
	}
	g.tiles[g.Index(x, z)].Terrain = terrain
	g.OnMapChange.Emit(struct{}{})
	return true
}

// SetStructure places kind at (x, z). Use RemoveStructure to clear a tile.
// Occupancy is not checked here; placement rules live in the structures package.
func (g *Grid) SetStructure(x, z int, kind StructureKind) bool {
	if kind == StructureNone || !g.InBounds(x, z) {
		return false
	}
	g.tiles[g.Index(x, z)].Structure = kind
	g.OnMapChange.Emit(struct{}{})
	if kind == StructureTree {
		g.OnFoliageChange.Emit(struct{}{})
	}
	return true
}

// RemoveStructure clears whatever occupies (x, z).
func (g *Grid) RemoveStructure(x, z int) bool {
	if !g.InBounds(x, z) {
		return false
	}
	t := &g.tiles[g.Index(x, z)]
	if t.Structure == StructureNone {
		return false
	}
	wasTree := t.Structure == StructureTree
	t.Structure = StructureNone
	g.OnMapChange.Emit(struct{}{})
	if wasTree {
		g.OnFoliageChange.Emit(struct{}{})
	}
	return true
}

// ApplyTrees seeds trees on every flagged, empty cell. The mask is row-major
// and must cover the whole grid.
func (g *Grid) ApplyTrees(mask []bool) int {
	if len(mask) != len(g.tiles) {
		slog.Warn("tree mask size mismatch", "mask", len(mask), "tiles", len(g.tiles))
		return 0
	}
	placed := 0
	for i, tree := range mask {
		if tree && g.tiles[i].Structure == StructureNone {
			g.tiles[i].Structure = StructureTree
			placed++
		}
	}
	if placed > 0 {
		g.OnMapChange.Emit(struct{}{})
	}
	g.OnFoliageChange.Emit(struct{}{})
	return placed
}

// Tiles returns a copy of the row-major tile slice.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// Equal reports whether two grids have identical dimensions and tiles.
func (g *Grid) Equal(o *Grid) bool {
	if g.width != o.width || g.height != o.height {
		return false
	}
	for i := range g.tiles {
		if g.tiles[i] != o.tiles[i] {
			return false
		}
	}
	return true
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, guests=%d)", g.width, g.height, g.guests.Count())
}

// GuestCounter tracks how many guests are in the park.
type GuestCounter struct {
	count uint32

	OnGuestCountChange event.Listeners[uint32]
}

// Count returns the current number of guests.
func (c *GuestCounter) Count() uint32 { return c.count }

// Add increments the counter.
func (c *GuestCounter) Add() {
	c.count++
	c.OnGuestCountChange.Emit(c.count)
}

// Remove decrements the counter, stopping at zero.
func (c *GuestCounter) Remove() {
	if c.count == 0 {
		slog.Warn("guest counter already zero")
		return
	}
	c.count--
	c.OnGuestCountChange.Emit(c.count)
}
