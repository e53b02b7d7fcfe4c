// Package world provides the tile grid, terrain, and spatial helpers.
// Cells are addressed by integer (x, z); tiles are stored row-major.
package world

import "math"

// Terrain types for grid tiles.
type Terrain uint8

const (
	TerrainGrass      Terrain = iota // Below the snow line
	TerrainSnow                      // Above the snow line
	TerrainPackedSnow                // Groomed piste, cheaper to cross
)

// StructureKind is what occupies a tile, if anything.
type StructureKind uint8

const (
	StructureNone StructureKind = iota
	StructureLodge
	StructureParkingLot
	StructureLift
	StructureTree
)

// SnowLine is the height above which generated terrain becomes snow.
const SnowLine = 10

// Tile is the state of a single grid cell.
type Tile struct {
	Height    float32       `json:"height"`
	Terrain   Terrain       `json:"type"`
	Structure StructureKind `json:"structure"`
}

// Blocking reports whether the tile holds a structure guests path around.
// Trees are footing obstacles only and do not block.
func (t Tile) Blocking() bool {
	return t.Structure != StructureNone && t.Structure != StructureTree
}

// Cell is a grid coordinate.
type Cell struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// CellNeighborDirections are the eight offsets around a cell.
var CellNeighborDirections = [8]Cell{
	{X: 1, Z: 0},
	{X: -1, Z: 0},
	{X: 0, Z: 1},
	{X: 0, Z: -1},
	{X: 1, Z: 1},
	{X: 1, Z: -1},
	{X: -1, Z: 1},
	{X: -1, Z: -1},
}

// Add returns the cell offset by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Z: c.Z + d.Z}
}

// Distance returns the Euclidean distance between two cells.
func Distance(a, b Cell) float64 {
	dx := float64(a.X - b.X)
	dz := float64(a.Z - b.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

// Lift connects a bottom station to a top station. Immutable once built.
type Lift struct {
	Start Cell `json:"start"`
	End   Cell `json:"end"`
}

// TerrainForHeight derives the terrain type from the snow line.
func TerrainForHeight(h float32) Terrain {
	if h > SnowLine {
		return TerrainSnow
	}
	return TerrainGrass
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainGrass:
		return "Grass"
	case TerrainSnow:
		return "Snow"
	case TerrainPackedSnow:
		return "PackedSnow"
	default:
		return "Unknown"
	}
}

// StructureName returns a human-readable name for a structure kind.
func StructureName(k StructureKind) string {
	switch k {
	case StructureNone:
		return "None"
	case StructureLodge:
		return "Lodge"
	case StructureParkingLot:
		return "ParkingLot"
	case StructureLift:
		return "Lift"
	case StructureTree:
		return "Tree"
	default:
		return "Unknown"
	}
}

func (k StructureKind) String() string { return StructureName(k) }

func (t Terrain) String() string { return TerrainName(t) }
