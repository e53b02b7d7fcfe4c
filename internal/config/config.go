// Package config loads the resort simulator's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/ski-resort/internal/agents"
	"github.com/talgya/ski-resort/internal/resort"
	"github.com/talgya/ski-resort/internal/structures"
	"github.com/talgya/ski-resort/internal/world"
)

// Config is the full simulator configuration.
type Config struct {
	Map     MapConfig     `yaml:"map"`
	Economy EconomyConfig `yaml:"economy"`
	Sim     SimConfig     `yaml:"sim"`
	Guests  GuestConfig   `yaml:"guests"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Starter StarterConfig `yaml:"starter"`
}

// MapConfig controls terrain generation for a fresh resort.
type MapConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	Seed           int64   `yaml:"seed"` // 0 picks a random seed
	MountainHeight float64 `yaml:"mountain_height"`
	NoiseScale     float64 `yaml:"noise_scale"`
	HeightExponent float64 `yaml:"height_exponent"`
	TreeDensity    float64 `yaml:"tree_density"`
	TreeNoiseScale float64 `yaml:"tree_noise_scale"`
	TreeLine       float64 `yaml:"tree_line"`
}

// EconomyConfig is the opening balance and the price table.
type EconomyConfig struct {
	StartingMoney  int64 `yaml:"starting_money"`
	LodgeCost      int64 `yaml:"lodge_cost"`
	ParkingLotCost int64 `yaml:"parking_lot_cost"`
	LiftRate       int64 `yaml:"lift_rate"` // Per cell between stations
}

// GuestConfig tunes guest behaviour. Speeds are world units per second and
// times are seconds.
type GuestConfig struct {
	WalkSpeed         float64 `yaml:"walk_speed"`
	SkiSpeed          float64 `yaml:"ski_speed"`
	LiftSpeed         float64 `yaml:"lift_speed"`
	Gravity           float64 `yaml:"gravity"`
	ArrivalThreshold  float64 `yaml:"arrival_threshold"`
	WanderWaitTime    float64 `yaml:"wander_wait_time"`
	LodgeWaitTime     float64 `yaml:"lodge_wait_time"`
	WanderRadius      float64 `yaml:"wander_radius"`
	LiftSearchRadius  float64 `yaml:"lift_search_radius"` // Cells
	SkiingEnergyCost  uint8   `yaml:"skiing_energy_cost"`
	WalkingEnergyCost uint8   `yaml:"walking_energy_cost"`
	LeaveThreshold    uint8   `yaml:"leave_threshold"`
	TicketPrice       int64   `yaml:"ticket_price"`
}

// SimConfig controls the run loop and guest arrivals.
type SimConfig struct {
	StepMs         int     `yaml:"step_ms"`
	Speed          float64 `yaml:"speed"`
	SpawnIntervalS float64 `yaml:"spawn_interval_s"`
	MaxGuests      int     `yaml:"max_guests"`
	Entrance       []int   `yaml:"entrance,omitempty"` // [x, z]; empty uses the placed site
	AutosaveTicks  uint64  `yaml:"autosave_ticks"`     // 0 disables autosave
	RunFor         string  `yaml:"run_for,omitempty"`  // Go duration; empty runs until interrupted
}

// StorageConfig names where state is kept. Empty paths disable that store.
type StorageConfig struct {
	DBPath       string `yaml:"db_path"`
	SnapshotPath string `yaml:"snapshot_path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`  // Rotated log file; empty logs to stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// StarterConfig describes what a fresh resort is given before the first tick.
type StarterConfig struct {
	AutoSites  bool            `yaml:"auto_sites"` // Place lodge, lot and lift with world.PlaceSites
	Structures []StructureSpec `yaml:"structures,omitempty"`
	Lifts      []LiftSpec      `yaml:"lifts,omitempty"`
	Pistes     [][]int         `yaml:"pistes,omitempty"` // Brush centres, [x, z]
}

// StructureSpec is a single-tile build.
type StructureSpec struct {
	Kind string `yaml:"kind"` // lodge, parking_lot
	X    int    `yaml:"x"`
	Z    int    `yaml:"z"`
}

// LiftSpec is a lift build.
type LiftSpec struct {
	Start []int `yaml:"start"`
	End   []int `yaml:"end"`
}

// Default returns the built-in configuration.
func Default() Config {
	gen := world.DefaultGenConfig()
	prices := structures.DefaultPrices()
	guest := agents.DefaultParams()
	return Config{
		Map: MapConfig{
			Width:          gen.Width,
			Height:         gen.Height,
			Seed:           gen.Seed,
			MountainHeight: gen.MountainHeight,
			NoiseScale:     gen.NoiseScale,
			HeightExponent: gen.HeightExponent,
			TreeDensity:    gen.TreeDensity,
			TreeNoiseScale: gen.TreeNoiseScale,
			TreeLine:       gen.TreeLine,
		},
		Economy: EconomyConfig{
			StartingMoney:  1000,
			LodgeCost:      prices.Lodge,
			ParkingLotCost: prices.ParkingLot,
			LiftRate:       prices.LiftPerUnit,
		},
		Sim: SimConfig{
			StepMs:         50,
			Speed:          1,
			SpawnIntervalS: 5,
			MaxGuests:      200,
			AutosaveTicks:  6000,
		},
		Guests: GuestConfig{
			WalkSpeed:         guest.WalkSpeed,
			SkiSpeed:          guest.SkiSpeed,
			LiftSpeed:         guest.LiftSpeed,
			Gravity:           guest.Gravity,
			ArrivalThreshold:  guest.ArrivalThreshold,
			WanderWaitTime:    guest.WanderWaitTime,
			LodgeWaitTime:     guest.LodgeWaitTime,
			WanderRadius:      guest.WanderRadius,
			LiftSearchRadius:  guest.LiftSearchRadius,
			SkiingEnergyCost:  guest.SkiingEnergyCost,
			WalkingEnergyCost: guest.WalkingEnergyCost,
			LeaveThreshold:    guest.LeaveThreshold,
			TicketPrice:       guest.TicketPrice,
		},
		Storage: StorageConfig{
			DBPath:       "data/resort.db",
			SnapshotPath: "data/map.json.zst",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Starter: StarterConfig{AutoSites: true},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		bad("map: size %dx%d must be positive", c.Map.Width, c.Map.Height)
	}
	if c.Map.TreeDensity < 0 || c.Map.TreeDensity > 1 {
		bad("map: tree_density %v outside [0,1]", c.Map.TreeDensity)
	}
	if c.Map.TreeLine < 0 || c.Map.TreeLine > 1 {
		bad("map: tree_line %v outside [0,1]", c.Map.TreeLine)
	}
	if c.Economy.StartingMoney < 0 {
		bad("economy: starting_money %d is negative", c.Economy.StartingMoney)
	}
	if c.Economy.LodgeCost < 0 || c.Economy.ParkingLotCost < 0 || c.Economy.LiftRate < 0 {
		bad("economy: prices must not be negative")
	}
	if c.Sim.StepMs <= 0 {
		bad("sim: step_ms %d must be positive", c.Sim.StepMs)
	}
	if c.Sim.Speed < 0 {
		bad("sim: speed %v is negative", c.Sim.Speed)
	}
	if c.Sim.SpawnIntervalS < 0 {
		bad("sim: spawn_interval_s %v is negative", c.Sim.SpawnIntervalS)
	}
	if c.Sim.MaxGuests < 0 {
		bad("sim: max_guests %d is negative", c.Sim.MaxGuests)
	}
	if len(c.Sim.Entrance) != 0 && len(c.Sim.Entrance) != 2 {
		bad("sim: entrance wants [x, z], got %v", c.Sim.Entrance)
	}
	if c.Sim.RunFor != "" {
		if _, err := time.ParseDuration(c.Sim.RunFor); err != nil {
			bad("sim: run_for: %v", err)
		}
	}
	if c.Guests.ArrivalThreshold <= 0 {
		bad("guests: arrival_threshold %v must be positive", c.Guests.ArrivalThreshold)
	}
	if c.Guests.WalkSpeed <= 0 || c.Guests.SkiSpeed <= 0 || c.Guests.LiftSpeed <= 0 {
		bad("guests: speeds must be positive")
	}
	if c.Guests.TicketPrice < 0 {
		bad("guests: ticket_price %d is negative", c.Guests.TicketPrice)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		bad("log: %v", err)
	}
	for i, s := range c.Starter.Structures {
		if _, err := ParseStructureKind(s.Kind); err != nil {
			bad("starter: structures[%d]: %v", i, err)
		}
	}
	for i, l := range c.Starter.Lifts {
		if len(l.Start) != 2 || len(l.End) != 2 {
			bad("starter: lifts[%d]: start and end want [x, z]", i)
		}
	}
	for i, p := range c.Starter.Pistes {
		if len(p) != 2 {
			bad("starter: pistes[%d]: want [x, z], got %v", i, p)
		}
	}
	return errors.Join(errs...)
}

// GenConfig converts the map section for world.Generate.
func (c Config) GenConfig() world.GenConfig {
	return world.GenConfig{
		Width:          c.Map.Width,
		Height:         c.Map.Height,
		Seed:           c.Map.Seed,
		MountainHeight: c.Map.MountainHeight,
		NoiseScale:     c.Map.NoiseScale,
		HeightExponent: c.Map.HeightExponent,
		TreeDensity:    c.Map.TreeDensity,
		TreeNoiseScale: c.Map.TreeNoiseScale,
		TreeLine:       c.Map.TreeLine,
	}
}

// Prices converts the economy section for the structure registry.
func (c Config) Prices() structures.Prices {
	return structures.Prices{
		Lodge:       c.Economy.LodgeCost,
		ParkingLot:  c.Economy.ParkingLotCost,
		LiftPerUnit: c.Economy.LiftRate,
	}
}

// GuestParams converts the guests section for the agents.
func (c Config) GuestParams() agents.Params {
	g := c.Guests
	return agents.Params{
		WalkSpeed:         g.WalkSpeed,
		SkiSpeed:          g.SkiSpeed,
		LiftSpeed:         g.LiftSpeed,
		Gravity:           g.Gravity,
		ArrivalThreshold:  g.ArrivalThreshold,
		WanderWaitTime:    g.WanderWaitTime,
		LodgeWaitTime:     g.LodgeWaitTime,
		WanderRadius:      g.WanderRadius,
		LiftSearchRadius:  g.LiftSearchRadius,
		SkiingEnergyCost:  g.SkiingEnergyCost,
		WalkingEnergyCost: g.WalkingEnergyCost,
		LeaveThreshold:    g.LeaveThreshold,
		TicketPrice:       g.TicketPrice,
	}
}

// SessionOptions converts the config for resort.New / resort.FromGrid.
func (c Config) SessionOptions() resort.Options {
	opts := resort.Options{
		Width:         c.Map.Width,
		Height:        c.Map.Height,
		Seed:          c.Map.Seed,
		StartingMoney: c.Economy.StartingMoney,
		Prices:        c.Prices(),
		Guest:         c.GuestParams(),
		SpawnInterval: c.Sim.SpawnIntervalS,
		MaxGuests:     c.Sim.MaxGuests,
	}
	if e, ok := c.EntranceCell(); ok {
		opts.Entrance = &e
	}
	return opts
}

// EntranceCell returns the configured entrance, if any.
func (c Config) EntranceCell() (world.Cell, bool) {
	if len(c.Sim.Entrance) != 2 {
		return world.Cell{}, false
	}
	return world.Cell{X: c.Sim.Entrance[0], Z: c.Sim.Entrance[1]}, true
}

// Step returns the fixed simulation step.
func (c Config) Step() time.Duration {
	return time.Duration(c.Sim.StepMs) * time.Millisecond
}

// RunFor returns how long to run, or 0 for no limit.
func (c Config) RunFor() time.Duration {
	d, _ := time.ParseDuration(c.Sim.RunFor)
	return d
}

// ParseStructureKind maps a config name to a buildable structure kind.
func ParseStructureKind(name string) (world.StructureKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lodge":
		return world.StructureLodge, nil
	case "parking_lot", "parkinglot", "parking":
		return world.StructureParkingLot, nil
	default:
		return world.StructureNone, fmt.Errorf("unknown structure kind %q", name)
	}
}
