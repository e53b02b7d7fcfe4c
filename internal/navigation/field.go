// Package navigation computes integration fields over the grid and turns
// them into per-cell movement directions.
package navigation

import (
	"math"

	"github.com/talgya/ski-resort/internal/world"
)

// Goal is a category of destination, resolved to concrete goal tiles from
// the structure registries.
type Goal uint8

const (
	GoalNone Goal = iota
	GoalLodge
	GoalLiftEntrance
	GoalParkingLot
	GoalWander
)

// FieldGoals are the categories that get an integration field.
var FieldGoals = [3]Goal{GoalLodge, GoalLiftEntrance, GoalParkingLot}

// Unreachable marks cells with no path to any goal tile.
const Unreachable float32 = math.MaxFloat32

// Edge costs for moving into a tile.
const (
	BaseCost         = 1.0
	PisteCostFactor  = 0.5  // Packed snow halves the cost
	StructurePenalty = 10.0 // Added when the tile holds a blocking structure
)

// Field is a dense row-major grid of accumulated cost to the nearest goal tile.
type Field []float32

// GoalSource supplies the current goal tiles. *structures.Registry satisfies it.
type GoalSource interface {
	Lodges() []world.Cell
	ParkingLots() []world.Cell
	Lifts() []world.Lift
}

// GoalTiles resolves a goal category to cells.
func GoalTiles(src GoalSource, goal Goal) []world.Cell {
	switch goal {
	case GoalLodge:
		return src.Lodges()
	case GoalParkingLot:
		return src.ParkingLots()
	case GoalLiftEntrance:
		lifts := src.Lifts()
		tiles := make([]world.Cell, 0, len(lifts))
		for _, l := range lifts {
			tiles = append(tiles, l.Start)
		}
		return tiles
	default:
		// None and Wander have no goal tiles.
		return nil
	}
}

// Generate floods the grid outward from every goal tile at once. The
// frontier is a plain FIFO; a cell is re-enqueued whenever a cheaper route to
// it is found, which converges because all edge costs are positive.
func Generate(g *world.Grid, goals []world.Cell) Field {
	field := make(Field, g.Len())
	for i := range field {
		field[i] = Unreachable
	}

	frontier := make([]world.Cell, 0, len(goals))
	for _, c := range goals {
		if !g.Contains(c) {
			continue
		}
		field[g.Index(c.X, c.Z)] = 0
		frontier = append(frontier, c)
	}

	for head := 0; head < len(frontier); head++ {
		current := frontier[head]
		currentDist := field[g.Index(current.X, current.Z)]

		for _, d := range cardinal {
			n := current.Add(d)
			if !g.Contains(n) {
				continue
			}
			ni := g.Index(n.X, n.Z)
			newDist := currentDist + MoveCost(g.TileAt(n))
			if newDist < field[ni] {
				field[ni] = newDist
				frontier = append(frontier, n)
			}
		}

		// Compact the consumed prefix once it dominates the queue.
		if head > 4096 && head*2 > len(frontier) {
			frontier = append(frontier[:0], frontier[head+1:]...)
			head = -1
		}
	}

	return field
}

// MoveCost is the cost of stepping into t.
func MoveCost(t world.Tile) float32 {
	cost := float32(BaseCost)
	if t.Terrain == world.TerrainPackedSnow {
		cost *= PisteCostFactor
	}
	if t.Blocking() {
		cost += StructurePenalty
	}
	return cost
}

var cardinal = [4]world.Cell{
	{X: 1, Z: 0},
	{X: -1, Z: 0},
	{X: 0, Z: 1},
	{X: 0, Z: -1},
}

// GoalName returns a human-readable name for a goal category.
func GoalName(goal Goal) string {
	switch goal {
	case GoalNone:
		return "None"
	case GoalLodge:
		return "Lodge"
	case GoalLiftEntrance:
		return "LiftEntrance"
	case GoalParkingLot:
		return "ParkingLot"
	case GoalWander:
		return "Wander"
	default:
		return "Unknown"
	}
}

func (g Goal) String() string { return GoalName(g) }
