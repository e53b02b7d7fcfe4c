package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/ski-resort/internal/config"
	"github.com/talgya/ski-resort/internal/resort"
	"github.com/talgya/ski-resort/internal/world"
)

// pisteOffset is how far beside the lift line the starter runs are painted.
const pisteOffset = 2

// buildStarter gives a fresh resort its opening layout: the automatic site
// placement first, then whatever the config lists explicitly. Failed builds
// are logged and skipped.
func buildStarter(s *resort.Session, cfg config.StarterConfig, seed int64) {
	if cfg.AutoSites {
		if sites, ok := world.PlaceSites(s.Grid, seed); ok {
			slog.Info("placing starter sites",
				"name", sites.Name,
				"entrance", sites.Entrance,
				"lodge", sites.Lodge,
				"parking_lot", sites.ParkingLot,
				"lift", fmt.Sprintf("%v->%v", sites.LiftBottom, sites.LiftTop),
			)
			if s.Options().Entrance == nil {
				e := sites.Entrance
				if err := s.SetEntrance(&e); err != nil {
					slog.Warn("entrance rejected", "error", err)
				}
			}
			build(s, sites.ParkingLot, world.StructureParkingLot)
			build(s, sites.Lodge, world.StructureLodge)
			buildLift(s, sites.LiftBottom, sites.LiftTop)
			paintRun(s.Grid, sites.LiftTop, sites.LiftBottom)
		} else {
			slog.Warn("no room for starter sites", "width", s.Grid.Width(), "height", s.Grid.Height())
		}
	}

	for _, spec := range cfg.Structures {
		kind, err := config.ParseStructureKind(spec.Kind)
		if err != nil {
			slog.Warn("starter structure skipped", "error", err)
			continue
		}
		build(s, world.Cell{X: spec.X, Z: spec.Z}, kind)
	}
	for _, l := range cfg.Lifts {
		buildLift(s, world.Cell{X: l.Start[0], Z: l.Start[1]}, world.Cell{X: l.End[0], Z: l.End[1]})
	}
	painted := 0
	for _, p := range cfg.Pistes {
		if s.Grid.PaintPiste(world.Cell{X: p[0], Z: p[1]}) {
			painted++
		}
	}
	if len(cfg.Pistes) > 0 {
		slog.Info("starter pistes painted", "count", painted, "requested", len(cfg.Pistes))
	}
}

func build(s *resort.Session, c world.Cell, kind world.StructureKind) {
	clearTree(s.Grid, c)
	if err := s.Structures.TryBuild(c, kind); err != nil {
		slog.Warn("starter build failed", "kind", kind, "pos", c, "error", err)
	}
}

func buildLift(s *resort.Session, start, end world.Cell) {
	clearTree(s.Grid, start)
	clearTree(s.Grid, end)
	if err := s.Structures.TryBuildLift(start, end); err != nil {
		slog.Warn("starter lift failed", "start", start, "end", end, "error", err)
	}
}

// clearTree fells a tree so the cell can be built on. Other structures
// are left for the registry to reject.
func clearTree(g *world.Grid, c world.Cell) {
	if g.Contains(c) && g.TileAt(c).Structure == world.StructureTree {
		g.RemoveStructure(c.X, c.Z)
	}
}

// paintRun paints a piste beside the line from top to bottom, one brush
// every other cell.
func paintRun(g *world.Grid, top, bottom world.Cell) int {
	length := world.Distance(top, bottom)
	if length == 0 {
		return 0
	}
	painted := 0
	for d := 0.0; d <= length; d += 2 {
		t := d / length
		c := world.Cell{
			X: int(math.Round(float64(top.X)+float64(bottom.X-top.X)*t)) + pisteOffset,
			Z: int(math.Round(float64(top.Z) + float64(bottom.Z-top.Z)*t)),
		}
		if g.PaintPiste(c) {
			painted++
		}
	}
	slog.Debug("starter run painted", "from", top, "to", bottom, "brushes", painted)
	return painted
}

// adoptStructures registers the lodges and parking lots already marked on
// an imported map so guests can find them. Lift stations cannot be paired
// back into lifts from tiles alone and are cleared.
func adoptStructures(s *resort.Session) (adopted, cleared int) {
	for i := 0; i < s.Grid.Len(); i++ {
		c := s.Grid.CellAt(i)
		switch kind := s.Grid.TileAt(c).Structure; kind {
		case world.StructureLodge, world.StructureParkingLot:
			if s.Structures.Restore(c, kind) {
				adopted++
			}
		case world.StructureLift:
			s.Grid.RemoveStructure(c.X, c.Z)
			cleared++
		}
	}
	s.Navigation.Invalidate()
	return adopted, cleared
}
