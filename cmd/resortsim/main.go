// Command resortsim runs a headless ski resort simulation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/ski-resort/internal/config"
	"github.com/talgya/ski-resort/internal/engine"
	"github.com/talgya/ski-resort/internal/persistence"
	"github.com/talgya/ski-resort/internal/resort"
	"github.com/talgya/ski-resort/internal/world"
)

const (
	defaultConfigPath = "configs/resortsim.yaml"
	summaryEvery      = 1200 // Steps between summary lines
)

func main() {
	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "reading .env: %v\n", err)
	}

	// ── Configuration ────────────────────────────────────────────────
	cfgPath := os.Getenv("RESORTSIM_CONFIG")
	if cfgPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			cfgPath = defaultConfigPath
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if cfg.Map.Seed == 0 {
		cfg.Map.Seed = rand.Int63()
	}
	slog.Info("ski resort simulation",
		"config", cfgPath,
		"seed", cfg.Map.Seed,
		"map", fmt.Sprintf("%dx%d", cfg.Map.Width, cfg.Map.Height),
		"step", cfg.Step(),
		"speed", cfg.Sim.Speed,
	)

	// ── Database ─────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Storage.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		db, err = persistence.Open(cfg.Storage.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Storage.DBPath)
	}

	// ── Load or Generate Resort ──────────────────────────────────────
	session, restored, err := openSession(db, cfg)
	if err != nil {
		slog.Error("failed to set up resort", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	st := session.Stats()
	slog.Info("resort ready",
		"restored", restored,
		"money", humanize.Comma(st.Money),
		"lodges", st.Lodges,
		"parking_lots", st.ParkingLots,
		"lifts", st.Lifts,
		"entrance", session.Options().Entrance,
		"tiles", humanize.Comma(int64(session.Grid.Len())),
	)
	for t, n := range world.TerrainCounts(session.Grid) {
		slog.Debug("terrain", "type", t, "count", n)
	}

	save := func(reason string) {
		if db == nil {
			return
		}
		start := time.Now()
		if err := db.SaveSession(session); err != nil {
			slog.Error("save failed", "reason", reason, "error", err)
			return
		}
		slog.Info("resort saved", "reason", reason, "tick", session.Tick(), "took", time.Since(start).Round(time.Millisecond))
	}
	if !restored {
		save("initial")
	}

	// ── Simulation Loop ──────────────────────────────────────────────
	driver := engine.NewDriver(func(dt float64) {
		session.Step(dt)
		tick := session.Tick()
		if tick%summaryEvery == 0 {
			session.LogSummary()
		}
		if cfg.Sim.AutosaveTicks > 0 && tick%cfg.Sim.AutosaveTicks == 0 {
			save("autosave")
		}
	})
	driver.Step = cfg.Step()
	driver.Speed = cfg.Sim.Speed

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if d := cfg.RunFor(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
		slog.Info("running for a fixed time", "duration", d)
	}

	fmt.Printf("\nResort is open: %s in the bank, %d lifts, %d lodges.\n",
		humanize.Comma(st.Money), st.Lifts, st.Lodges)
	if session.Tick() > 0 {
		fmt.Printf("Resuming at %s (tick %s)\n", engine.ClockTime(session.Tick(), driver.Step), humanize.Comma(int64(session.Tick())))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	if err := driver.Run(ctx); err != nil {
		slog.Error("simulation loop failed", "error", err)
	}

	// ── Shutdown ─────────────────────────────────────────────────────
	session.LogSummary()
	save("shutdown")
	if cfg.Storage.SnapshotPath != "" {
		if err := persistence.SaveMap(cfg.Storage.SnapshotPath, session.Grid); err != nil {
			slog.Error("map snapshot failed", "error", err)
		} else if fi, err := os.Stat(cfg.Storage.SnapshotPath); err == nil {
			slog.Info("map snapshot written", "path", cfg.Storage.SnapshotPath, "size", humanize.Bytes(uint64(fi.Size())))
		}
	}

	final := session.Stats()
	fmt.Printf("Resort closed at %s: %s guests served, %s in the bank.\n",
		engine.ClockTime(session.Tick(), driver.Step),
		humanize.Comma(int64(final.Arrived)),
		humanize.Comma(final.Money),
	)
}

// openSession restores the saved resort when there is one. Otherwise the
// terrain comes from the map snapshot if present, or is generated, and the
// starter layout is built on it.
func openSession(db *persistence.DB, cfg config.Config) (*resort.Session, bool, error) {
	opts := cfg.SessionOptions()

	if db != nil {
		ok, err := db.HasSession()
		if err != nil {
			return nil, false, err
		}
		if ok {
			slog.Info("found saved resort, loading...")
			s, err := db.LoadSession(opts)
			if err != nil {
				return nil, false, err
			}
			slog.Info("resort restored", "tick", s.Tick(), "clock", engine.ClockTime(s.Tick(), cfg.Step()))
			return s, true, nil
		}
	}

	var grid *world.Grid
	imported := false
	if cfg.Storage.SnapshotPath != "" && persistence.SaveExists(cfg.Storage.SnapshotPath) {
		g, err := persistence.LoadMap(cfg.Storage.SnapshotPath)
		if err != nil {
			slog.Warn("map snapshot unreadable, generating instead", "error", err)
		} else {
			grid, imported = g, true
		}
	}
	if grid == nil {
		slog.Info("generating terrain...")
		grid = world.Generate(cfg.GenConfig())
	}

	s, err := resort.FromGrid(grid, opts)
	if err != nil {
		return nil, false, err
	}
	if imported {
		adopted, cleared := adoptStructures(s)
		slog.Info("map imported from snapshot", "path", cfg.Storage.SnapshotPath, "structures", adopted, "lift_tiles_cleared", cleared)
		if adopted > 0 {
			cfg.Starter.AutoSites = false
		}
	}
	buildStarter(s, cfg.Starter, cfg.Map.Seed)
	return s, false, nil
}
