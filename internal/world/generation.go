// Terrain generation using layered simplex noise.
// Produces a single mountain heightmap with a radial falloff, then seeds
// trees below the tree line.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width          int
	Height         int
	Seed           int64   // Random seed (0 = random)
	MountainHeight float64 // Peak height in world units
	NoiseScale     float64 // Base noise frequency across the whole map
	HeightExponent float64 // Shapes the height curve; >1 widens the valleys
	TreeDensity    float64 // Tree where tree noise < density (0.0–1.0)
	TreeNoiseScale float64
	TreeLine       float64 // Fraction of MountainHeight above which no trees grow
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:          128,
		Height:         128,
		Seed:           0,
		MountainHeight: 80,
		NoiseScale:     2,
		HeightExponent: 1.6,
		TreeDensity:    0.4,
		TreeNoiseScale: 8,
		TreeLine:       0.6,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 16
	cfg.Height = 16
	cfg.Seed = 42
	cfg.MountainHeight = 20
	return cfg
}

// Generate creates a grid with terrain heights and trees.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	g := NewGrid(cfg.Width, cfg.Height)
	heights := GenerateHeights(cfg, seed)
	for z := 0; z < cfg.Height; z++ {
		for x := 0; x < cfg.Width; x++ {
			g.SetTileHeight(x, z, heights[x+z*cfg.Width])
		}
	}
	g.ApplyTrees(GenerateTrees(cfg, seed, heights))
	return g
}

// GenerateHeights returns a row-major heightmap: octave noise masked by the
// distance from the map centre, so the peak sits mid-map and the edges fall
// away to the valley floor.
func GenerateHeights(cfg GenConfig, seed int64) []float32 {
	noise := opensimplex.NewNormalized(seed)
	heights := make([]float32, cfg.Width*cfg.Height)
	if cfg.Width == 0 || cfg.Height == 0 {
		return heights
	}

	cx := float64(cfg.Width) / 2
	cz := float64(cfg.Height) / 2
	radius := float64(cfg.Width) / 2

	for z := 0; z < cfg.Height; z++ {
		for x := 0; x < cfg.Width; x++ {
			nx := float64(x) / float64(cfg.Width)
			nz := float64(z) / float64(cfg.Height)
			n := octaveNoise(noise, nx, nz, 4, cfg.NoiseScale, 0.5)

			dist := math.Hypot(float64(x)-cx, float64(z)-cz)
			mask := 1 - clamp01(dist/radius)

			h := math.Pow(clamp01(n*mask), cfg.HeightExponent) * cfg.MountainHeight
			heights[x+z*cfg.Width] = float32(h)
		}
	}
	return heights
}

// GenerateTrees returns a row-major tree mask for a heightmap.
func GenerateTrees(cfg GenConfig, seed int64, heights []float32) []bool {
	noise := opensimplex.NewNormalized(seed + 5555)
	trees := make([]bool, len(heights))
	treeLine := cfg.MountainHeight * cfg.TreeLine

	for i, h := range heights {
		if float64(h) > treeLine || h < 0 {
			continue
		}
		x := i % cfg.Width
		z := i / cfg.Width
		nx := float64(x) / float64(cfg.Width) * cfg.TreeNoiseScale
		nz := float64(z) / float64(cfg.Height) * cfg.TreeNoiseScale
		if noise.Eval2(nx, nz) < cfg.TreeDensity {
			trees[i] = true
		}
	}
	return trees
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(g *Grid) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range g.tiles {
		counts[t.Terrain]++
	}
	return counts
}

// StructureCounts returns how many tiles hold each structure kind.
func StructureCounts(g *Grid) map[StructureKind]int {
	counts := make(map[StructureKind]int)
	for _, t := range g.tiles {
		if t.Structure != StructureNone {
			counts[t.Structure]++
		}
	}
	return counts
}
