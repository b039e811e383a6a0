// Package snap constrains a proposed item translation: grid snapping, center
// snapping with a presentation guide, and clamping to the canvas with a bleed
// padding. Coordinates are offsets from the canvas center, which is also every
// item's rest position.
package snap

import (
	"math"

	"github.com/inamate/collage/internal/geometry"
)

type Config struct {
	GridSize  float64
	Threshold float64
	Padding   float64
}

// DefaultConfig returns grid 20, threshold 20, padding 50.
func DefaultConfig() Config {
	return Config{GridSize: 20, Threshold: 20, Padding: 50}
}

// Options selects which snaps apply to a candidate.
type Options struct {
	Grid   bool
	Center bool
}

// Guides is presentation feedback for the last constrained position.
type Guides struct {
	Center     bool `json:"center"`
	Vertical   bool `json:"vertical"`
	Horizontal bool `json:"horizontal"`
}

// Any reports whether any guide is raised.
func (g Guides) Any() bool {
	return g.Center || g.Vertical || g.Horizontal
}

// Result is a constrained translation plus the guides it raised.
type Result struct {
	Position geometry.Point
	Guides   Guides
}

// GridAxis snaps v to the nearest non-zero multiple of the grid when it lies
// strictly within the threshold of it. The zero line is the canvas center and
// belongs to center snapping, so it is never a grid target.
func (c Config) GridAxis(v float64) (float64, bool) {
	if c.GridSize <= 0 || c.Threshold <= 0 {
		return v, false
	}
	target := math.Round(v/c.GridSize) * c.GridSize
	if target == 0 {
		return v, false
	}
	if math.Abs(v-target) < c.Threshold {
		return target, true
	}
	return v, false
}

// Grid snaps each axis independently.
func (c Config) Grid(p geometry.Point) (geometry.Point, Guides) {
	x, sx := c.GridAxis(p.X)
	y, sy := c.GridAxis(p.Y)
	return geometry.Point{X: x, Y: y}, Guides{Vertical: sx, Horizontal: sy}
}

// Center snaps p to the canvas center when both axes are strictly within the
// threshold of it.
func (c Config) Center(p geometry.Point) (geometry.Point, bool) {
	if math.Abs(p.X) < c.Threshold && math.Abs(p.Y) < c.Threshold {
		return geometry.Point{}, true
	}
	return p, false
}

// Bounds is the allowed translation range on each axis.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// BoundsFor computes the translation range that keeps an item of the given
// intrinsic size, at scale, within the canvas expanded by the padding. When
// the item is too large for any position to satisfy that, the range collapses
// to the center on that axis.
func (c Config) BoundsFor(canvas, item geometry.Size, scale float64) Bounds {
	halfW, halfH := item.Half(scale)
	cw, ch := canvas.Width/2, canvas.Height/2

	b := Bounds{
		MinX: -cw + halfW - c.Padding,
		MaxX: cw - halfW + c.Padding,
		MinY: -ch + halfH - c.Padding,
		MaxY: ch - halfH + c.Padding,
	}
	if b.MinX > b.MaxX {
		b.MinX, b.MaxX = 0, 0
	}
	if b.MinY > b.MaxY {
		b.MinY, b.MaxY = 0, 0
	}
	return b
}

// Clamp limits p to b.
func (b Bounds) Clamp(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: geometry.Clamp(p.X, b.MinX, b.MaxX),
		Y: geometry.Clamp(p.Y, b.MinY, b.MaxY),
	}
}

// Contains reports whether p lies within b.
func (b Bounds) Contains(p geometry.Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Apply runs grid snap, then center snap, then the boundary clamp. Guides
// describe the snaps that survived the clamp; they never affect the numbers.
func (c Config) Apply(candidate geometry.Point, canvas, item geometry.Size, scale float64, opts Options) Result {
	p := candidate
	var g Guides

	if opts.Grid {
		p, g = c.Grid(p)
	}
	if opts.Center {
		if centered, ok := c.Center(p); ok {
			p = centered
			g = Guides{Center: true}
		}
	}

	clamped := c.BoundsFor(canvas, item, scale).Clamp(p)
	if clamped.X != p.X {
		g.Vertical = false
		g.Center = false
	}
	if clamped.Y != p.Y {
		g.Horizontal = false
		g.Center = false
	}
	return Result{Position: clamped, Guides: g}
}
