// Package structures applies placement rules and the price table on top of
// the grid and the treasury, and keeps build-order registries of what exists.
package structures

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/ski-resort/internal/economy"
	"github.com/talgya/ski-resort/internal/event"
	"github.com/talgya/ski-resort/internal/world"
)

// Reasons a build is rejected. Match with errors.Is.
var (
	ErrOutOfBounds       = errors.New("out of bounds")
	ErrTileOccupied      = errors.New("tile occupied")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotBuildable      = errors.New("structure kind not buildable")
)

// Prices is the build price table.
type Prices struct {
	Lodge       int64
	ParkingLot  int64
	LiftPerUnit int64 // Per cell of station-to-station distance
}

// DefaultPrices returns the standard price table.
func DefaultPrices() Prices {
	return Prices{
		Lodge:       100,
		ParkingLot:  50,
		LiftPerUnit: 10,
	}
}

// Built is the payload of OnStructureBuilt.
type Built struct {
	Pos  world.Cell
	Kind world.StructureKind
}

// Registry validates and performs builds, and records them in build order.
type Registry struct {
	grid    *world.Grid
	economy *economy.Economy
	prices  Prices

	positions map[world.StructureKind][]world.Cell
	lifts     []world.Lift

	OnStructureBuilt event.Listeners[Built]
	OnLiftBuilt      event.Listeners[world.Lift]
}

// NewRegistry creates an empty registry over a grid and treasury.
func NewRegistry(grid *world.Grid, econ *economy.Economy, prices Prices) (*Registry, error) {
	if grid == nil {
		return nil, errors.New("structures: nil grid")
	}
	if econ == nil {
		return nil, errors.New("structures: nil economy")
	}
	return &Registry{
		grid:      grid,
		economy:   econ,
		prices:    prices,
		positions: make(map[world.StructureKind][]world.Cell),
	}, nil
}

// Prices returns the price table in use.
func (r *Registry) Prices() Prices {
	return r.prices
}

// Cost returns the fixed price of a single-tile structure.
func (r *Registry) Cost(kind world.StructureKind) int64 {
	switch kind {
	case world.StructureLodge:
		return r.prices.Lodge
	case world.StructureParkingLot:
		return r.prices.ParkingLot
	default:
		return 0
	}
}

// LiftCost returns the price of a lift between two stations, charged once
// for the pair.
func (r *Registry) LiftCost(start, end world.Cell) int64 {
	return int64(math.Round(world.Distance(start, end))) * r.prices.LiftPerUnit
}

// TryBuild places a single-tile structure.
func (r *Registry) TryBuild(pos world.Cell, kind world.StructureKind) error {
	if kind != world.StructureLodge && kind != world.StructureParkingLot {
		return fmt.Errorf("build %s at %v: %w", kind, pos, ErrNotBuildable)
	}
	if !r.grid.Contains(pos) {
		return fmt.Errorf("build %s at %v: %w", kind, pos, ErrOutOfBounds)
	}
	if r.grid.TileAt(pos).Structure != world.StructureNone {
		slog.Debug("tile already has a structure", "pos", pos, "existing", r.grid.TileAt(pos).Structure)
		return fmt.Errorf("build %s at %v: %w", kind, pos, ErrTileOccupied)
	}
	cost := r.Cost(kind)
	if !r.economy.TrySpend(cost) {
		slog.Debug("not enough money", "cost", cost, "money", r.economy.Money())
		return fmt.Errorf("build %s at %v (cost %d): %w", kind, pos, cost, ErrInsufficientFunds)
	}

	r.place(pos, kind)
	r.OnStructureBuilt.Emit(Built{Pos: pos, Kind: kind})
	return nil
}

// TryBuildLift places both stations of a lift. Only the endpoints are
// validated; slope and line of sight are not checked.
func (r *Registry) TryBuildLift(start, end world.Cell) error {
	if !r.grid.Contains(start) || !r.grid.Contains(end) {
		return fmt.Errorf("build lift %v->%v: %w", start, end, ErrOutOfBounds)
	}
	if r.grid.TileAt(start).Structure != world.StructureNone {
		return fmt.Errorf("build lift %v->%v: start: %w", start, end, ErrTileOccupied)
	}
	// A lift needs two distinct stations; the second one would land on the first.
	if start == end || r.grid.TileAt(end).Structure != world.StructureNone {
		return fmt.Errorf("build lift %v->%v: end: %w", start, end, ErrTileOccupied)
	}
	cost := r.LiftCost(start, end)
	if !r.economy.TrySpend(cost) {
		return fmt.Errorf("build lift %v->%v (cost %d): %w", start, end, cost, ErrInsufficientFunds)
	}

	lift := world.Lift{Start: start, End: end}
	r.grid.SetStructure(start.X, start.Z, world.StructureLift)
	r.grid.SetStructure(end.X, end.Z, world.StructureLift)
	r.lifts = append(r.lifts, lift)
	r.OnLiftBuilt.Emit(lift)
	return nil
}

// Restore records an existing structure without charging for it or firing
// build events. The tile is marked if it is not already.
func (r *Registry) Restore(pos world.Cell, kind world.StructureKind) bool {
	if kind != world.StructureLodge && kind != world.StructureParkingLot {
		return false
	}
	if !r.grid.Contains(pos) {
		return false
	}
	if r.grid.TileAt(pos).Structure != kind {
		r.grid.SetStructure(pos.X, pos.Z, kind)
	}
	r.positions[kind] = append(r.positions[kind], pos)
	return true
}

// RestoreLift records an existing lift without charging for it.
func (r *Registry) RestoreLift(lift world.Lift) bool {
	if !r.grid.Contains(lift.Start) || !r.grid.Contains(lift.End) || lift.Start == lift.End {
		return false
	}
	for _, c := range []world.Cell{lift.Start, lift.End} {
		if r.grid.TileAt(c).Structure != world.StructureLift {
			r.grid.SetStructure(c.X, c.Z, world.StructureLift)
		}
	}
	r.lifts = append(r.lifts, lift)
	return true
}

func (r *Registry) place(pos world.Cell, kind world.StructureKind) {
	r.grid.SetStructure(pos.X, pos.Z, kind)
	r.positions[kind] = append(r.positions[kind], pos)
}

// Positions returns the cells holding kind, in build order.
func (r *Registry) Positions(kind world.StructureKind) []world.Cell {
	return append([]world.Cell(nil), r.positions[kind]...)
}

// Lodges returns lodge cells in build order.
func (r *Registry) Lodges() []world.Cell {
	return r.Positions(world.StructureLodge)
}

// ParkingLots returns parking lot cells in build order.
func (r *Registry) ParkingLots() []world.Cell {
	return r.Positions(world.StructureParkingLot)
}

// Lifts returns lifts in build order.
func (r *Registry) Lifts() []world.Lift {
	return append([]world.Lift(nil), r.lifts...)
}

// Count returns how many of kind exist. Lifts count once per pair.
func (r *Registry) Count(kind world.StructureKind) int {
	if kind == world.StructureLift {
		return len(r.lifts)
	}
	return len(r.positions[kind])
}
