// Package geom provides the vector and rectangle math used by the arena
// simulation. It has no dependencies so game logic stays pure and testable.
package geom

import (
	"math"
	"math/rand"
)

// Vec is a 2D vector. Used for positions, velocities and movement intents.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Len returns the Euclidean length of the vector.
func (v Vec) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether both components are exactly zero.
func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Normalized returns the unit vector in the same direction. The zero vector
// normalizes to itself. NaN and Inf components are coerced to zero so a
// malformed client intent can never poison a position.
func (v Vec) Normalized() Vec {
	if math.IsNaN(v.X) || math.IsInf(v.X, 0) {
		v.X = 0
	}
	if math.IsNaN(v.Y) || math.IsInf(v.Y, 0) {
		v.Y = 0
	}
	l := v.Len()
	if l == 0 {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Intersects reports whether two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	if r.X >= o.Right() || o.X >= r.Right() {
		return false
	}
	if r.Y >= o.Bottom() || o.Y >= r.Bottom() {
		return false
	}
	return true
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// CenteredRect builds a rectangle of the given half-extents around a point.
func CenteredRect(c Vec, halfW, halfH float64) Rect {
	return Rect{X: c.X - halfW, Y: c.Y - halfH, W: 2 * halfW, H: 2 * halfH}
}

// Expanded grows the rectangle by m on every side.
func (r Rect) Expanded(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, W: r.W + 2*m, H: r.H + 2*m}
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// RandPoint samples a uniform point inside a w×h area keeping at least margin
// from every edge.
func RandPoint(rng *rand.Rand, w, h, margin float64) Vec {
	return Vec{
		X: margin + rng.Float64()*(w-2*margin),
		Y: margin + rng.Float64()*(h-2*margin),
	}
}
