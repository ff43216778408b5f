package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2D vector.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) mgl() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }

func fromMgl(m mgl64.Vec2) Vec2 { return Vec2{X: m.X(), Y: m.Y()} }

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return fromMgl(v.mgl().Add(o.mgl())) }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return fromMgl(v.mgl().Sub(o.mgl())) }

// Scale returns v*s.
func (v Vec2) Scale(s float64) Vec2 { return fromMgl(v.mgl().Mul(s)) }

// Len returns the euclidean length.
func (v Vec2) Len() float64 { return v.mgl().Len() }

// LenSq returns the squared length.
func (v Vec2) LenSq() float64 { return v.mgl().Dot(v.mgl()) }

// DistSq returns the squared distance between v and o.
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// minNormLen is the shortest vector Normalize treats as having a direction.
// Anything shorter, subnormals included, would overflow 1/len.
const minNormLen = 1e-9

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v is too short to have a direction or is not finite.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < minNormLen || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}
	}
	return fromMgl(v.mgl().Normalize())
}

// ClampAxis clamps each component to [-1, 1]. NaN and infinite components
// become zero.
func ClampAxis(v Vec2) Vec2 {
	return Vec2{X: clampUnit(v.X), Y: clampUnit(v.Y)}
}

func clampUnit(f float64) float64 {
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return 0
	case f > 1:
		return 1
	case f < -1:
		return -1
	}
	return f
}

// clampRange clamps f to [lo, hi]; NaN maps to the midpoint.
func clampRange(f, lo, hi float64) float64 {
	if math.IsNaN(f) {
		return (lo + hi) / 2
	}
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
