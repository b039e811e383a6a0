// Package geometry holds the pure math used by the collage engine: touch
// distances and angles, clamping, rotation about a point and angle
// normalization, plus the affine matrix used to place items on the canvas.
package geometry

import "math"

// Point is a position in canvas-local units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Angle returns the direction of the vector a - b in degrees, in (-180, 180].
func Angle(a, b Point) float64 {
	return math.Atan2(a.Y-b.Y, a.X-b.X) * 180 / math.Pi
}

// Clamp limits v to [lo, hi]. When lo > hi the range is empty and lo wins,
// matching max(lo, min(hi, v)).
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RotateAroundPoint rotates p about center by degrees (clockwise in screen
// space, where y grows downward).
func RotateAroundPoint(p, center Point, degrees float64) Point {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	dx, dy := p.X-center.X, p.Y-center.Y
	return Point{
		X: center.X + dx*cos - dy*sin,
		Y: center.Y + dx*sin + dy*cos,
	}
}

// NormalizeAngle maps any finite angle in degrees into (-180, 180].
func NormalizeAngle(degrees float64) float64 {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0
	}
	a := math.Mod(degrees, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}
