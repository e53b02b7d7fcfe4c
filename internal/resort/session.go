// Package resort wires the grid, treasury, structures, navigation, scheduler
// and guests of one running resort together and steps them.
package resort

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/ski-resort/internal/agents"
	"github.com/talgya/ski-resort/internal/economy"
	"github.com/talgya/ski-resort/internal/engine"
	"github.com/talgya/ski-resort/internal/navigation"
	"github.com/talgya/ski-resort/internal/structures"
	"github.com/talgya/ski-resort/internal/world"
)

// maxEvents bounds the recent event log.
const maxEvents = 1000

// Options configure a session.
type Options struct {
	Width, Height int
	Seed          int64
	StartingMoney int64
	Prices        structures.Prices
	Guest         agents.Params

	SpawnInterval float64     // Seconds between arrivals; 0 disables spawning
	MaxGuests     int         // Arrivals pause at this many guests
	Entrance      *world.Cell // Where guests arrive; nil disables spawning
}

// DefaultOptions returns a 128×128 resort with default prices and tuning.
func DefaultOptions() Options {
	return Options{
		Width:         128,
		Height:        128,
		Seed:          42,
		StartingMoney: 1000,
		Prices:        structures.DefaultPrices(),
		Guest:         agents.DefaultParams(),
		SpawnInterval: 5,
		MaxGuests:     200,
	}
}

// Event is a notable occurrence at the resort.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "guest", "build"
}

// Stats summarises the resort at one moment.
type Stats struct {
	Tick        uint64                    `json:"tick"`
	Guests      int                       `json:"guests"`
	ByState     map[agents.GuestState]int `json:"by_state"`
	Money       int64                     `json:"money"`
	Lodges      int                       `json:"lodges"`
	ParkingLots int                       `json:"parking_lots"`
	Lifts       int                       `json:"lifts"`
	Arrived     uint64                    `json:"arrived"`
	Departed    uint64                    `json:"departed"`
}

// Session holds the complete resort state. Every collaborator is created
// here and handed to whoever needs it; nothing is global.
type Session struct {
	Grid       *world.Grid
	Economy    *economy.Economy
	Structures *structures.Registry
	Navigation *navigation.Service
	Scheduler  *engine.Scheduler
	Spawner    *agents.Spawner

	Events []Event // Recent events, oldest first

	opts       Options
	guests     []*agents.GuestAgent
	tick       uint64
	spawnTimer float64
	departed   uint64
}

// New creates a session on a fresh flat grid.
func New(opts Options) (*Session, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("resort: invalid size %dx%d", opts.Width, opts.Height)
	}
	return FromGrid(world.NewGrid(opts.Width, opts.Height), opts)
}

// FromGrid creates a session over an existing grid, as after generation or
// a restore. Width and Height in opts are ignored.
func FromGrid(g *world.Grid, opts Options) (*Session, error) {
	if g == nil {
		return nil, errors.New("resort: nil grid")
	}
	if opts.Entrance != nil && !g.Contains(*opts.Entrance) {
		return nil, fmt.Errorf("resort: entrance %v outside %dx%d grid", *opts.Entrance, g.Width(), g.Height())
	}
	opts.Width, opts.Height = g.Width(), g.Height()

	econ := economy.New(opts.StartingMoney)
	reg, err := structures.NewRegistry(g, econ, opts.Prices)
	if err != nil {
		return nil, fmt.Errorf("resort: %w", err)
	}
	nav, err := navigation.NewService(g, reg)
	if err != nil {
		return nil, fmt.Errorf("resort: %w", err)
	}

	s := &Session{
		Grid:       g,
		Economy:    econ,
		Structures: reg,
		Navigation: nav,
		Scheduler:  engine.NewScheduler(),
		Spawner:    agents.NewSpawner(opts.Seed, g.Guests()),
		opts:       opts,
	}

	reg.OnStructureBuilt.Subscribe(func(b structures.Built) {
		s.logEvent("build", fmt.Sprintf("%s built at %v", b.Kind, b.Pos))
	})
	reg.OnLiftBuilt.Subscribe(func(l world.Lift) {
		s.logEvent("build", fmt.Sprintf("lift built from %v to %v", l.Start, l.End))
	})
	return s, nil
}

// Close detaches the session's listeners from the grid.
func (s *Session) Close() {
	s.Navigation.Close()
}

// Options returns the options the session runs with.
func (s *Session) Options() Options {
	return s.opts
}

// SetEntrance moves the arrival point. A nil cell disables spawning.
func (s *Session) SetEntrance(c *world.Cell) error {
	if c != nil && !s.Grid.Contains(*c) {
		return fmt.Errorf("resort: entrance %v out of bounds", *c)
	}
	s.opts.Entrance = c
	return nil
}

// Tick returns the number of steps run so far.
func (s *Session) Tick() uint64 {
	return s.tick
}

// SetTick restores the step counter after a load.
func (s *Session) SetTick(t uint64) {
	s.tick = t
}

// Step advances the resort by one fixed step of dt seconds: navigation
// catches up with this step's map edits, every agent ticks, new guests
// arrive, and departed guests are removed.
func (s *Session) Step(dt float64) {
	s.Navigation.Flush()
	s.Scheduler.Tick(dt)
	s.tick++

	s.advanceSpawner(dt)
	s.reap()
}

func (s *Session) advanceSpawner(dt float64) {
	if s.opts.Entrance == nil || s.opts.SpawnInterval <= 0 {
		return
	}
	s.spawnTimer += dt
	if s.spawnTimer < s.opts.SpawnInterval {
		return
	}
	s.spawnTimer -= s.opts.SpawnInterval

	if s.opts.MaxGuests > 0 && int(s.Grid.Guests().Count()) >= s.opts.MaxGuests {
		return
	}
	c := *s.opts.Entrance
	if _, err := s.SpawnGuest(world.GridToWorld(c, s.Grid.TileAt(c).Height)); err != nil {
		slog.Warn("guest spawn failed", "error", err)
	}
}

// SpawnGuest creates a guest standing at pos and starts it ticking.
func (s *Session) SpawnGuest(pos world.Vec3) (*agents.GuestAgent, error) {
	data := s.Spawner.Spawn(pos)
	a, err := agents.NewGuestAgent(data, agents.Deps{
		Grid:       s.Grid,
		Economy:    s.Economy,
		Structures: s.Structures,
		Navigation: s.Navigation,
		Scheduler:  s.Scheduler,
		Rand:       s.Spawner.Rand(),
		Params:     s.opts.Guest,
	})
	if err != nil {
		s.Grid.Guests().Remove()
		return nil, fmt.Errorf("spawn guest: %w", err)
	}
	s.guests = append(s.guests, a)
	s.logEvent("guest", fmt.Sprintf("guest %s arrived, heading %s", data.ID, data.State))
	return a, nil
}

// reap disposes of every guest that has finished leaving.
func (s *Session) reap() {
	kept := s.guests[:0]
	for _, a := range s.guests {
		if !a.QueuedForDestruction() {
			kept = append(kept, a)
			continue
		}
		a.Dispose()
		s.departed++
		s.logEvent("guest", fmt.Sprintf("guest %s went home", a.Data().ID))
	}
	for i := len(kept); i < len(s.guests); i++ {
		s.guests[i] = nil
	}
	s.guests = kept
}

// Guests returns the live guests in arrival order.
func (s *Session) Guests() []*agents.GuestAgent {
	out := make([]*agents.GuestAgent, len(s.guests))
	copy(out, s.guests)
	return out
}

// Stats summarises the current state.
func (s *Session) Stats() Stats {
	st := Stats{
		Tick:        s.tick,
		Guests:      len(s.guests),
		ByState:     make(map[agents.GuestState]int),
		Money:       s.Economy.Money(),
		Lodges:      s.Structures.Count(world.StructureLodge),
		ParkingLots: s.Structures.Count(world.StructureParkingLot),
		Lifts:       len(s.Structures.Lifts()),
		Arrived:     s.Spawner.Spawned(),
		Departed:    s.departed,
	}
	for _, a := range s.guests {
		st.ByState[a.Data().State]++
	}
	return st
}

func (s *Session) logEvent(category, desc string) {
	s.Events = append(s.Events, Event{Tick: s.tick, Description: desc, Category: category})
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// LogSummary writes a one-line report of the resort to the default logger.
func (s *Session) LogSummary() {
	st := s.Stats()
	args := []any{
		"tick", st.Tick,
		"guests", st.Guests,
		"money", st.Money,
		"lodges", st.Lodges,
		"parking_lots", st.ParkingLots,
		"lifts", st.Lifts,
		"arrived", st.Arrived,
		"departed", st.Departed,
	}
	for _, state := range agents.AllStates {
		if n := st.ByState[state]; n > 0 {
			args = append(args, state.String(), n)
		}
	}
	slog.Info("resort summary", args...)
}
