package world

import "math"

// Piste brush parameters.
const (
	PisteRadius          = 1.8
	PisteBaseLerp        = 0.5 // Blend weight at the brush centre
	PisteFlattenStrength = 0.5 // How far the target leans from the local average toward the centre height
)

// PaintPiste grooms every cell within PisteRadius of center: trees are
// cleared, terrain becomes packed snow, and height is pulled toward a blend of
// the local 3×3 average and the centre height. The pull fades to zero at the
// brush edge, so repeated strokes progressively flatten the run.
// Returns true if any cell changed.
func (g *Grid) PaintPiste(center Cell) bool {
	if !g.Contains(center) {
		return false
	}

	// Averages read pre-stroke heights so the result does not depend on visit order.
	before := make(map[Cell]float32)
	r := int(math.Ceil(PisteRadius))
	for dz := -r - 1; dz <= r+1; dz++ {
		for dx := -r - 1; dx <= r+1; dx++ {
			c := Cell{X: center.X + dx, Z: center.Z + dz}
			if g.Contains(c) {
				before[c] = g.TileAt(c).Height
			}
		}
	}
	centerHeight := float64(before[center])

	changed := false
	treesRemoved := false

	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			c := Cell{X: center.X + dx, Z: center.Z + dz}
			if !g.Contains(c) {
				continue
			}
			d := math.Sqrt(float64(dx*dx + dz*dz))
			if d > PisteRadius {
				continue
			}

			t := &g.tiles[g.Index(c.X, c.Z)]
			if t.Structure == StructureTree {
				t.Structure = StructureNone
				treesRemoved = true
				changed = true
			}
			if t.Terrain != TerrainPackedSnow {
				t.Terrain = TerrainPackedSnow
				changed = true
			}

			avg := neighborhoodAverage(before, c)
			target := lerp(avg, centerHeight, PisteFlattenStrength)
			amount := PisteBaseLerp * (1 - d/PisteRadius)
			h := float32(lerp(float64(t.Height), target, amount))
			if h != t.Height {
				t.Height = h
				changed = true
			}
		}
	}

	if changed {
		g.OnMapChange.Emit(struct{}{})
	}
	if treesRemoved {
		g.OnFoliageChange.Emit(struct{}{})
	}
	return changed
}

func neighborhoodAverage(heights map[Cell]float32, c Cell) float64 {
	sum := 0.0
	n := 0
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			if h, ok := heights[Cell{X: c.X + dx, Z: c.Z + dz}]; ok {
				sum += float64(h)
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
