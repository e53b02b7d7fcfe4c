package world

import "math"

// Vec3 is a world-space position. Y is up; the grid lies in the XZ plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec2 is a planar direction. Y maps to world Z.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s} }

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// PlanarDistance is the distance between a and b ignoring height.
func PlanarDistance(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Normalized returns v scaled to unit length, or zero for a zero vector.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y) }

// IsZero reports whether v is the zero vector.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Normalized returns v scaled to unit length, or zero for a zero vector.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// GridToWorld returns the centre of a cell at height h.
func GridToWorld(c Cell, h float32) Vec3 {
	return Vec3{X: float64(c.X) + 0.5, Y: float64(h), Z: float64(c.Z) + 0.5}
}

// WorldToGrid returns the cell containing p.
func WorldToGrid(p Vec3) Cell {
	return Cell{X: int(math.Floor(p.X)), Z: int(math.Floor(p.Z))}
}
