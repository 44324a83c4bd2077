// Package geometry provides the 2D vector maths the simulation core is
// built on. Vectors are plain value types; every operation returns a new
// value and never mutates the receiver.
package geometry

import "math"

// Epsilon is the fixed tolerance used for parallel and degeneracy
// decisions throughout the avoidance solver. It is a tuning parameter,
// not an error bound: lowering it makes near-parallel constraint pairs
// resolve by intersection instead of by sign test.
const Epsilon = 1e-5

// FallbackDirection is the unit vector substituted when a direction
// would otherwise be derived from a near-zero vector.
var FallbackDirection = Vector2{X: 1, Y: 0}

// Vector2 is a 2D vector or point.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + other.
func (v Vector2) Add(other Vector2) Vector2 {
	return Vector2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other.
func (v Vector2) Sub(other Vector2) Vector2 {
	return Vector2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v * s.
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of v and other.
func (v Vector2) Dot(other Vector2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Det returns the 2D cross product (determinant) of v and other.
// Positive when other lies to the left of v.
func (v Vector2) Det(other Vector2) float64 {
	return v.X*other.Y - v.Y*other.X
}

// LengthSq returns |v|². Cheaper than Length for comparisons.
func (v Vector2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Length returns |v|.
func (v Vector2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Perp returns v rotated 90° clockwise.
func (v Vector2) Perp() Vector2 {
	return Vector2{X: v.Y, Y: -v.X}
}

// Normalize returns the unit vector in the direction of v, or
// FallbackDirection when |v| is too small to divide by safely.
func (v Vector2) Normalize() Vector2 {
	length := v.Length()
	if length < Epsilon {
		return FallbackDirection
	}
	return v.Scale(1 / length)
}

// Limit returns v with its magnitude capped at max. Vectors already
// within the cap are returned unchanged.
func (v Vector2) Limit(max float64) Vector2 {
	lengthSq := v.LengthSq()
	if lengthSq > max*max && lengthSq > 0 {
		return v.Scale(max / math.Sqrt(lengthSq))
	}
	return v
}

// Dist returns the Euclidean distance between the points v and other.
func (v Vector2) Dist(other Vector2) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}
