package navigation

import (
	"errors"
	"log/slog"
	"time"

	"github.com/talgya/ski-resort/internal/world"
)

// Service owns one integration field per goal category and answers
// direction queries against them.
//
// Map edits only mark the service dirty; fields are rebuilt wholesale on the
// next Flush or query, so a burst of edits within one tick costs one rebuild.
type Service struct {
	grid   *world.Grid
	source GoalSource

	fields map[Goal]Field
	dirty  bool

	rebuilds    uint64
	unsubscribe func()
}

// NewService creates a navigation service and subscribes it to map changes.
func NewService(grid *world.Grid, source GoalSource) (*Service, error) {
	if grid == nil {
		return nil, errors.New("navigation: nil grid")
	}
	if source == nil {
		return nil, errors.New("navigation: nil goal source")
	}
	s := &Service{
		grid:   grid,
		source: source,
		fields: make(map[Goal]Field),
		dirty:  true,
	}
	s.unsubscribe = grid.OnMapChange.Subscribe(func(struct{}) { s.dirty = true })
	return s, nil
}

// Close detaches the service from the grid's change events.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Dirty reports whether a rebuild is pending.
func (s *Service) Dirty() bool { return s.dirty }

// Rebuilds returns how many full rebuilds have run.
func (s *Service) Rebuilds() uint64 { return s.rebuilds }

// Invalidate marks every field stale.
func (s *Service) Invalidate() { s.dirty = true }

// Flush rebuilds the fields if any edit happened since the last rebuild.
func (s *Service) Flush() {
	if s.dirty {
		s.Rebuild()
	}
}

// Rebuild regenerates every field and swaps the new set in.
func (s *Service) Rebuild() {
	start := time.Now()
	fields := make(map[Goal]Field, len(FieldGoals))
	for _, goal := range FieldGoals {
		fields[goal] = Generate(s.grid, GoalTiles(s.source, goal))
	}
	s.fields = fields
	s.dirty = false
	s.rebuilds++
	slog.Debug("navigation fields rebuilt",
		"cells", s.grid.Len(),
		"rebuilds", s.rebuilds,
		"elapsed", time.Since(start),
	)
}

// Field returns the current field for goal.
func (s *Service) Field(goal Goal) (Field, bool) {
	s.Flush()
	f, ok := s.fields[goal]
	return f, ok
}

// Distance returns the stored cost at the cell under pos. The second result
// is false when there is no field for goal or the cell cannot reach it.
func (s *Service) Distance(pos world.Vec3, goal Goal) (float32, bool) {
	f, ok := s.Field(goal)
	if !ok {
		return Unreachable, false
	}
	c := world.WorldToGrid(pos)
	if !s.grid.Contains(c) {
		return Unreachable, false
	}
	d := f[s.grid.Index(c.X, c.Z)]
	return d, d != Unreachable
}

// Reachable reports whether any goal tile of the category can be reached from pos.
func (s *Service) Reachable(pos world.Vec3, goal Goal) bool {
	_, ok := s.Distance(pos, goal)
	return ok
}

// Direction returns the unit direction toward the neighbour with the
// strictly smallest stored cost, or zero when no neighbour improves on the
// current cell. Agents re-query every tick, so the path emerges from local
// descent.
func (s *Service) Direction(pos world.Vec3, goal Goal) world.Vec2 {
	f, ok := s.Field(goal)
	if !ok {
		return world.Vec2{}
	}
	c := world.WorldToGrid(pos)
	if !s.grid.Contains(c) {
		return world.Vec2{}
	}

	best := f[s.grid.Index(c.X, c.Z)]
	bestCell := c
	for _, d := range world.CellNeighborDirections {
		n := c.Add(d)
		if !s.grid.Contains(n) {
			continue
		}
		if v := f[s.grid.Index(n.X, n.Z)]; v < best {
			best = v
			bestCell = n
		}
	}
	if bestCell == c {
		return world.Vec2{}
	}
	return world.Vec2{X: float64(bestCell.X - c.X), Y: float64(bestCell.Z - c.Z)}.Normalized()
}
