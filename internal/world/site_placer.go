// Site placement: finds sensible spots on generated terrain for the guest
// entrance and the starter structures of a fresh resort.
package world

import (
	"math"
	"math/rand"
	"sort"
)

// Sites holds the suggested starter layout for a fresh resort.
type Sites struct {
	Name       string
	Entrance   Cell // Where guests spawn
	ParkingLot Cell
	Lodge      Cell
	LiftBottom Cell
	LiftTop    Cell
}

// MaxStarterLiftLength caps how far up the mountain the starter lift reaches.
const MaxStarterLiftLength = 24.0

// PlaceSites scores every cell and picks a starter layout: the entrance,
// parking lot, lodge and lift bottom cluster on flat low ground, and the lift
// top lands on the highest free cell within MaxStarterLiftLength.
// Returns false if the grid is too small to hold the layout.
func PlaceSites(g *Grid, seed int64) (Sites, bool) {
	rng := rand.New(rand.NewSource(seed + 200))

	type scored struct {
		cell  Cell
		score float64
	}
	var candidates []scored

	for i := 0; i < g.Len(); i++ {
		c := g.CellAt(i)
		s := siteScore(g, c)
		if s > 0 {
			candidates = append(candidates, scored{c, s})
		}
	}
	if len(candidates) < 4 {
		return Sites{}, false
	}

	// Sort by score descending; ties broken by row-major order for determinism.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return g.Index(candidates[i].cell.X, candidates[i].cell.Z) < g.Index(candidates[j].cell.X, candidates[j].cell.Z)
	})

	taken := make(map[Cell]bool)
	entrance := candidates[0].cell
	taken[entrance] = true

	// The rest of the base cluster takes the best free cells near the entrance.
	pick := func(maxDist float64) (Cell, bool) {
		for _, c := range candidates {
			if taken[c.cell] || Distance(c.cell, entrance) > maxDist {
				continue
			}
			taken[c.cell] = true
			return c.cell, true
		}
		return Cell{}, false
	}

	sites := Sites{Entrance: entrance}
	var ok bool
	if sites.ParkingLot, ok = pick(3); !ok {
		return Sites{}, false
	}
	if sites.Lodge, ok = pick(6); !ok {
		return Sites{}, false
	}
	if sites.LiftBottom, ok = pick(8); !ok {
		return Sites{}, false
	}

	best := math.Inf(-1)
	found := false
	for i := 0; i < g.Len(); i++ {
		c := g.CellAt(i)
		t := g.TileAt(c)
		if taken[c] || t.Structure != StructureNone {
			continue
		}
		if Distance(c, sites.LiftBottom) > MaxStarterLiftLength {
			continue
		}
		if float64(t.Height) > best {
			best = float64(t.Height)
			sites.LiftTop = c
			found = true
		}
	}
	if !found {
		return Sites{}, false
	}

	sites.Name = generateNames(rng, 1)[0]
	return sites, true
}

// siteScore evaluates how suitable a cell is for base structures.
// Prefers: flat ground, low elevation, no trees.
func siteScore(g *Grid, c Cell) float64 {
	t := g.TileAt(c)
	if t.Blocking() {
		return 0
	}

	score := 3.0
	if t.Structure == StructureTree {
		score -= 1.5
	}

	// Flatness: penalise the largest step to any neighbour.
	maxStep := 0.0
	for _, d := range CellNeighborDirections {
		n := c.Add(d)
		if !g.Contains(n) {
			continue
		}
		step := math.Abs(float64(g.TileAt(n).Height - t.Height))
		if step > maxStep {
			maxStep = step
		}
	}
	score -= maxStep

	// Low ground is easier to reach from the road.
	score -= math.Log1p(math.Max(0, float64(t.Height))) * 0.3

	if score < 0 {
		return 0
	}
	return score
}

// generateNames produces procedural resort names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Frost", "Snow", "Pine", "Silver", "White", "Storm", "High",
		"Eagle", "Bear", "Wolf", "Cedar", "Glacier", "Powder", "Summit",
		"Crystal", "Alpen", "North", "Iron", "Cloud", "Elk",
	}
	suffixes := []string{
		"peak", "ridge", "crest", "vale", "horn", "basin", "hollow",
		"haven", "fall", "reach", "point", "watch", "pass", "top",
		"bowl", "glen",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}

	return names
}
