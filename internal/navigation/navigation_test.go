package navigation

import (
	"math"
	"testing"

	"github.com/talgya/ski-resort/internal/world"
)

type staticGoals struct {
	lodges, lots []world.Cell
	lifts        []world.Lift
}

func (s *staticGoals) Lodges() []world.Cell      { return s.lodges }
func (s *staticGoals) ParkingLots() []world.Cell { return s.lots }
func (s *staticGoals) Lifts() []world.Lift       { return s.lifts }

func newService(t *testing.T, g *world.Grid, src GoalSource) *Service {
	t.Helper()
	s, err := NewService(g, src)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestGenerate_SingleGoalManhattan(t *testing.T) {
	g := world.NewGrid(5, 5)
	f := Generate(g, []world.Cell{{X: 2, Z: 2}})

	for z := 0; z < 5; z++ {
		for x := 0; x < 5; x++ {
			want := float32(abs(x-2) + abs(z-2))
			if got := f[g.Index(x, z)]; got != want {
				t.Fatalf("(%d,%d)=%v want=%v", x, z, got, want)
			}
		}
	}
}

func TestGenerate_MultipleSourcesTakeNearest(t *testing.T) {
	g := world.NewGrid(9, 1)
	f := Generate(g, []world.Cell{{X: 0, Z: 0}, {X: 8, Z: 0}})
	want := []float32{0, 1, 2, 3, 4, 3, 2, 1, 0}
	for x, w := range want {
		if f[x] != w {
			t.Fatalf("x=%d got=%v want=%v", x, f[x], w)
		}
	}
}

func TestGenerate_NoGoalsIsUnreachable(t *testing.T) {
	g := world.NewGrid(3, 3)
	f := Generate(g, nil)
	for i, v := range f {
		if v != Unreachable {
			t.Fatalf("cell %d=%v want Unreachable", i, v)
		}
	}
	// Out-of-bounds goals are ignored.
	f = Generate(g, []world.Cell{{X: 7, Z: 7}})
	if f[0] != Unreachable {
		t.Fatalf("out-of-bounds goal seeded the field")
	}
}

func TestMoveCost(t *testing.T) {
	cases := []struct {
		tile world.Tile
		want float32
	}{
		{world.Tile{}, 1},
		{world.Tile{Terrain: world.TerrainPackedSnow}, 0.5},
		{world.Tile{Structure: world.StructureTree}, 1},
		{world.Tile{Structure: world.StructureLodge}, 11},
		{world.Tile{Terrain: world.TerrainPackedSnow, Structure: world.StructureLift}, 10.5},
	}
	for _, tc := range cases {
		if got := MoveCost(tc.tile); got != tc.want {
			t.Fatalf("MoveCost(%+v)=%v want=%v", tc.tile, got, tc.want)
		}
	}
}

func TestGenerate_PrefersPiste(t *testing.T) {
	// Two routes between (0,0) and (4,0): straight along z=0 costs 4, the
	// detour over the piste on z=1 costs 5×0.5 + 1 = 3.5.
	g := world.NewGrid(5, 2)
	for x := 0; x < 5; x++ {
		g.SetTileType(x, 1, world.TerrainPackedSnow)
	}
	f := Generate(g, []world.Cell{{X: 4, Z: 0}})

	if got := f[g.Index(0, 0)]; got != 3.5 {
		t.Fatalf("(0,0)=%v want=3.5", got)
	}
}

func TestService_GoalTilesAreZeroAndDescentIsMonotonic(t *testing.T) {
	g := world.NewGrid(12, 10)
	g.SetStructure(5, 5, world.StructureLodge)
	g.SetStructure(3, 4, world.StructureTree)
	g.SetStructure(6, 2, world.StructureParkingLot)
	for x := 0; x < 12; x++ {
		g.SetTileType(x, 7, world.TerrainPackedSnow)
	}
	src := &staticGoals{
		lodges: []world.Cell{{X: 5, Z: 5}, {X: 10, Z: 1}},
		lots:   []world.Cell{{X: 6, Z: 2}},
		lifts:  []world.Lift{{Start: world.Cell{X: 1, Z: 8}, End: world.Cell{X: 11, Z: 9}}},
	}
	s := newService(t, g, src)

	for _, goal := range FieldGoals {
		f, ok := s.Field(goal)
		if !ok {
			t.Fatalf("%v: no field", goal)
		}
		for _, c := range GoalTiles(src, goal) {
			if d := f[g.Index(c.X, c.Z)]; d != 0 {
				t.Fatalf("%v: goal %v distance=%v want=0", goal, c, d)
			}
		}

		for i := 0; i < g.Len(); i++ {
			c := g.CellAt(i)
			d := f[i]
			if d == 0 || d == Unreachable {
				continue
			}
			pos := world.GridToWorld(c, 0)
			dir := s.Direction(pos, goal)
			if dir.IsZero() {
				t.Fatalf("%v: reachable cell %v (d=%v) got zero direction", goal, c, d)
			}
			if math.Abs(dir.Len()-1) > 1e-9 {
				t.Fatalf("%v: direction %+v not normalized", goal, dir)
			}
			next := stepToward(c, dir)
			if nd := f[g.Index(next.X, next.Z)]; !(nd < d) {
				t.Fatalf("%v: %v (d=%v) points to %v (d=%v)", goal, c, d, next, nd)
			}
		}
	}
}

func TestService_FollowingDirectionsReachesGoal(t *testing.T) {
	g := world.NewGrid(16, 16)
	g.SetStructure(8, 4, world.StructureLodge)
	src := &staticGoals{lodges: []world.Cell{{X: 12, Z: 13}}}
	s := newService(t, g, src)

	c := world.Cell{X: 0, Z: 0}
	for steps := 0; ; steps++ {
		if steps > g.Len() {
			t.Fatalf("descent did not terminate")
		}
		dir := s.Direction(world.GridToWorld(c, 0), GoalLodge)
		if dir.IsZero() {
			break
		}
		c = stepToward(c, dir)
	}
	if c != (world.Cell{X: 12, Z: 13}) {
		t.Fatalf("stopped at %v want lodge", c)
	}
}

func TestService_NoGoalsGivesZeroDirection(t *testing.T) {
	g := world.NewGrid(4, 4)
	s := newService(t, g, &staticGoals{})

	pos := world.GridToWorld(world.Cell{X: 1, Z: 1}, 0)
	for _, goal := range []Goal{GoalNone, GoalWander, GoalLodge, GoalLiftEntrance, GoalParkingLot} {
		if dir := s.Direction(pos, goal); !dir.IsZero() {
			t.Fatalf("%v: direction=%+v want zero", goal, dir)
		}
	}
	if s.Reachable(pos, GoalLodge) {
		t.Fatalf("lodge reachable with no lodges")
	}
	if dir := s.Direction(world.Vec3{X: -5, Z: 2}, GoalLodge); !dir.IsZero() {
		t.Fatalf("out of bounds position got a direction")
	}
}

func TestService_RebuildsOnlyWhenDirty(t *testing.T) {
	g := world.NewGrid(6, 6)
	src := &staticGoals{}
	s := newService(t, g, src)

	pos := world.GridToWorld(world.Cell{X: 0, Z: 0}, 0)
	s.Direction(pos, GoalLodge)
	s.Direction(pos, GoalLodge)
	if s.Rebuilds() != 1 {
		t.Fatalf("rebuilds=%d want=1", s.Rebuilds())
	}

	// Several edits in a row cost a single rebuild.
	src.lodges = []world.Cell{{X: 5, Z: 5}}
	g.SetStructure(5, 5, world.StructureLodge)
	g.SetTileType(1, 1, world.TerrainPackedSnow)
	g.SetTileHeight(2, 2, 3)
	if !s.Dirty() {
		t.Fatalf("map change did not mark dirty")
	}
	if d, ok := s.Distance(pos, GoalLodge); !ok || d == 0 {
		t.Fatalf("distance=%v ok=%v after lodge built", d, ok)
	}
	if s.Rebuilds() != 2 {
		t.Fatalf("rebuilds=%d want=2", s.Rebuilds())
	}

	s.Close()
	g.SetTileType(0, 0, world.TerrainSnow)
	if s.Dirty() {
		t.Fatalf("closed service still listening")
	}
}

func TestService_LiftEntranceUsesStartStation(t *testing.T) {
	g := world.NewGrid(8, 8)
	src := &staticGoals{lifts: []world.Lift{{Start: world.Cell{X: 1, Z: 1}, End: world.Cell{X: 6, Z: 6}}}}
	s := newService(t, g, src)

	if d, _ := s.Distance(world.GridToWorld(world.Cell{X: 1, Z: 1}, 0), GoalLiftEntrance); d != 0 {
		t.Fatalf("start station distance=%v want=0", d)
	}
	if d, _ := s.Distance(world.GridToWorld(world.Cell{X: 6, Z: 6}, 0), GoalLiftEntrance); d != 10 {
		t.Fatalf("end station distance=%v want=10", d)
	}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, &staticGoals{}); err == nil {
		t.Fatalf("expected error for nil grid")
	}
	if _, err := NewService(world.NewGrid(1, 1), nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}

// stepToward returns the neighbour of c that a unit direction points at.
func stepToward(c world.Cell, dir world.Vec2) world.Cell {
	scale := math.Max(math.Abs(dir.X), math.Abs(dir.Y))
	return world.Cell{X: c.X + int(math.Round(dir.X/scale)), Z: c.Z + int(math.Round(dir.Y/scale))}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
