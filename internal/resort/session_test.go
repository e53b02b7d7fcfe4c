package resort

import (
	"testing"

	"github.com/talgya/ski-resort/internal/agents"
	"github.com/talgya/ski-resort/internal/world"
)

const testDT = 0.05

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func smallOptions() Options {
	opts := DefaultOptions()
	opts.Width, opts.Height = 16, 16
	opts.SpawnInterval = 0
	return opts
}

func TestNew_Validates(t *testing.T) {
	opts := smallOptions()
	opts.Width = 0
	if _, err := New(opts); err == nil {
		t.Fatalf("expected error for zero width")
	}
	if _, err := FromGrid(nil, smallOptions()); err == nil {
		t.Fatalf("expected error for nil grid")
	}
	opts = smallOptions()
	opts.Entrance = &world.Cell{X: 40, Z: 1}
	if _, err := New(opts); err == nil {
		t.Fatalf("expected error for entrance outside grid")
	}
}

func TestSession_SpawnsUpToMaxGuests(t *testing.T) {
	opts := smallOptions()
	opts.SpawnInterval = 1
	opts.MaxGuests = 3
	opts.Entrance = &world.Cell{X: 2, Z: 2}
	s := newSession(t, opts)

	for i := 0; i < 200; i++ {
		s.Step(testDT)
	}
	if got := s.Grid.Guests().Count(); got != 3 {
		t.Fatalf("guests=%d want=3", got)
	}
	if len(s.Guests()) != 3 || s.Scheduler.Len() != 3 {
		t.Fatalf("session guests=%d scheduled=%d", len(s.Guests()), s.Scheduler.Len())
	}
	if s.Tick() != 200 {
		t.Fatalf("tick=%d want=200", s.Tick())
	}
	for _, g := range s.Guests() {
		if *g.Data().Home != world.GridToWorld(world.Cell{X: 2, Z: 2}, 0) {
			t.Fatalf("guest home=%v want entrance", *g.Data().Home)
		}
	}
}

func TestSession_NoEntranceNoArrivals(t *testing.T) {
	opts := smallOptions()
	opts.SpawnInterval = 0.05
	s := newSession(t, opts)
	for i := 0; i < 50; i++ {
		s.Step(testDT)
	}
	if len(s.Guests()) != 0 {
		t.Fatalf("guests arrived without an entrance")
	}

	if err := s.SetEntrance(&world.Cell{X: 99, Z: 0}); err == nil {
		t.Fatalf("expected error for out of bounds entrance")
	}
	if err := s.SetEntrance(&world.Cell{X: 0, Z: 0}); err != nil {
		t.Fatalf("SetEntrance: %v", err)
	}
	s.Step(testDT)
	if len(s.Guests()) != 1 {
		t.Fatalf("guests=%d want=1 after entrance set", len(s.Guests()))
	}
}

func TestSession_ReapsDepartedGuests(t *testing.T) {
	s := newSession(t, smallOptions())
	a, err := s.SpawnGuest(world.GridToWorld(world.Cell{X: 4, Z: 4}, 0))
	if err != nil {
		t.Fatalf("SpawnGuest: %v", err)
	}
	keep, err := s.SpawnGuest(world.GridToWorld(world.Cell{X: 8, Z: 8}, 0))
	if err != nil {
		t.Fatalf("SpawnGuest: %v", err)
	}
	a.Data().Energy = 1

	for i := 0; i < 500 && !a.Disposed(); i++ {
		s.Step(testDT)
	}
	if !a.Disposed() {
		t.Fatalf("departed guest never disposed")
	}
	guests := s.Guests()
	if len(guests) != 1 || guests[0] != keep {
		t.Fatalf("remaining guests=%v", guests)
	}
	if s.Grid.Guests().Count() != 1 || s.Scheduler.Len() != 1 {
		t.Fatalf("count=%d scheduled=%d want 1/1", s.Grid.Guests().Count(), s.Scheduler.Len())
	}
	if st := s.Stats(); st.Departed != 1 || st.Arrived != 2 {
		t.Fatalf("departed=%d arrived=%d want 1/2", st.Departed, st.Arrived)
	}
}

func TestSession_StepFlushesNavigation(t *testing.T) {
	s := newSession(t, smallOptions())
	s.Step(testDT)
	rebuilds := s.Navigation.Rebuilds()

	// Two edits in one step cost one rebuild.
	if err := s.Structures.TryBuild(world.Cell{X: 3, Z: 3}, world.StructureLodge); err != nil {
		t.Fatalf("TryBuild: %v", err)
	}
	s.Grid.PaintPiste(world.Cell{X: 8, Z: 8})
	if !s.Navigation.Dirty() {
		t.Fatalf("edits did not dirty navigation")
	}
	s.Step(testDT)
	if s.Navigation.Dirty() || s.Navigation.Rebuilds() != rebuilds+1 {
		t.Fatalf("dirty=%v rebuilds=%d want clean/%d", s.Navigation.Dirty(), s.Navigation.Rebuilds(), rebuilds+1)
	}
}

func TestSession_StatsAndEvents(t *testing.T) {
	s := newSession(t, smallOptions())
	if err := s.Structures.TryBuild(world.Cell{X: 3, Z: 3}, world.StructureLodge); err != nil {
		t.Fatalf("TryBuild: %v", err)
	}
	if err := s.Structures.TryBuildLift(world.Cell{X: 1, Z: 1}, world.Cell{X: 1, Z: 6}); err != nil {
		t.Fatalf("TryBuildLift: %v", err)
	}
	if _, err := s.SpawnGuest(world.GridToWorld(world.Cell{X: 10, Z: 10}, 0)); err != nil {
		t.Fatalf("SpawnGuest: %v", err)
	}

	st := s.Stats()
	if st.Lodges != 1 || st.Lifts != 1 || st.Guests != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if st.ByState[agents.StateWalkingToLift] != 1 {
		t.Fatalf("by state=%v want one walking to lift", st.ByState)
	}
	if st.Money != 1000-100-50 {
		t.Fatalf("money=%d want=850", st.Money)
	}

	categories := map[string]int{}
	for _, e := range s.Events {
		categories[e.Category]++
	}
	if categories["build"] != 2 || categories["guest"] != 1 {
		t.Fatalf("events=%v", categories)
	}
	s.LogSummary()
}

func TestSession_EventLogIsBounded(t *testing.T) {
	s := newSession(t, smallOptions())
	for i := 0; i < maxEvents+10; i++ {
		s.logEvent("guest", "x")
	}
	if len(s.Events) != maxEvents {
		t.Fatalf("events=%d want=%d", len(s.Events), maxEvents)
	}
}
