package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceAndAngle(t *testing.T) {
	a := Point{X: 3, Y: 4}
	b := Point{}
	assert.InDelta(t, 5, Distance(a, b), 1e-9)
	assert.InDelta(t, 0, Distance(a, a), 1e-9)

	assert.InDelta(t, 0, Angle(Point{X: 10}, Point{}), 1e-9)
	assert.InDelta(t, 90, Angle(Point{Y: 10}, Point{}), 1e-9)
	assert.InDelta(t, 180, Angle(Point{X: -10}, Point{}), 1e-9)
	assert.InDelta(t, -90, Angle(Point{Y: -10}, Point{}), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.1, 0.5, 3))
	assert.Equal(t, 3.0, Clamp(5, 0.5, 3))
	assert.Equal(t, 2.0, Clamp(2, 0.5, 3))
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{360, 0},
		{540, 180},
		{725, 5},
		{-725, -5},
	}
	for _, tt := range tests {
		got := NormalizeAngle(tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "NormalizeAngle(%v)", tt.in)
		assert.True(t, got > -180 && got <= 180)
	}
	assert.Equal(t, 0.0, NormalizeAngle(math.NaN()))
}

func TestRotateAroundPoint(t *testing.T) {
	p := RotateAroundPoint(Point{X: 2, Y: 1}, Point{X: 1, Y: 1}, 90)
	assert.InDelta(t, 1, p.X, 1e-9)
	assert.InDelta(t, 2, p.Y, 1e-9)

	same := RotateAroundPoint(Point{X: 5, Y: 5}, Point{X: 5, Y: 5}, 33)
	assert.InDelta(t, 5, same.X, 1e-9)
	assert.InDelta(t, 5, same.Y, 1e-9)
}

func TestItemTransformRoundTrip(t *testing.T) {
	m := ItemTransform(100, 100, 20, -10, 2, 30)
	inv, ok := m.Invert()
	require.True(t, ok)

	p := Point{X: 7, Y: -3}
	back := inv.Apply(m.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	center := m.Apply(Point{})
	assert.InDelta(t, 120, center.X, 1e-9)
	assert.InDelta(t, 90, center.Y, 1e-9)
}

func TestItemTransformComposition(t *testing.T) {
	m := ItemTransform(0, 0, 10, 0, 2, 90)
	// A point one unit right of the item's middle: scaled to 2, turned a
	// quarter clockwise in screen space, then moved by the offset.
	p := m.Apply(Point{X: 1})
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 2, p.Y, 1e-9)
	assert.InDelta(t, 4, m.Determinant(), 1e-9)
}

func TestInvertSingular(t *testing.T) {
	_, ok := Scale(0, 1).Invert()
	assert.False(t, ok)
}

func TestRectContains(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, a.Contains(10, 10))
	assert.False(t, a.Contains(10.1, 5))
}
