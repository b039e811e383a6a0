package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
	"github.com/inamate/collage/internal/snap"
)

var (
	canvas  = geometry.Size{Width: 400, Height: 400}
	sticker = geometry.Size{Width: 100, Height: 100}
	epoch   = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func pt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

func down(at time.Time, touches ...geometry.Point) TouchEvent {
	return TouchEvent{Phase: PhaseDown, Touches: touches, Time: at}
}

func move(touches ...geometry.Point) TouchEvent {
	return TouchEvent{Phase: PhaseMove, Touches: touches, Time: epoch}
}

func up(at time.Time, touches ...geometry.Point) TouchEvent {
	return TouchEvent{Phase: PhaseUp, Touches: touches, Time: at}
}

type recorder struct {
	selected []string
	updates  []document.TransformState
	guides   []snap.Guides
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		Select: func(id string) { r.selected = append(r.selected, id) },
		Update: func(_ string, t document.TransformState) { r.updates = append(r.updates, t) },
		Guides: func(_ string, g snap.Guides) { r.guides = append(r.guides, g) },
	}
}

func newMachine(t document.TransformState, hooks Hooks) *Machine {
	return NewMachine(Item{
		ID:        "stk_a",
		Size:      sticker,
		Transform: t,
		Caps:      AllCapabilities(),
	}, canvas, DefaultConfig(), NewArbiter(), hooks)
}

func TestDragSnapsToGrid(t *testing.T) {
	rec := &recorder{}
	m := newMachine(document.IdentityTransform(), rec.hooks())

	m.HandleEvent(down(epoch, pt(100, 100)))
	assert.Equal(t, Dragging, m.State())
	assert.Equal(t, []string{"stk_a"}, rec.selected)

	m.HandleEvent(move(pt(118, 103)))
	assert.Equal(t, pt(20, 3), pt(m.Live().X, m.Live().Y))
	require.NotEmpty(t, rec.guides)
	assert.True(t, rec.guides[len(rec.guides)-1].Vertical)

	m.HandleEvent(up(epoch))
	assert.Equal(t, Idle, m.State())
	require.Len(t, rec.updates, 1)
	assert.Equal(t, document.TransformState{X: 20, Y: 3, Scale: 1}, rec.updates[0])
	assert.Equal(t, snap.Guides{}, m.Guides())
}

func TestDragDeadZone(t *testing.T) {
	m := newMachine(document.IdentityTransform(), Hooks{})
	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(move(pt(3, 0)))
	assert.Equal(t, document.IdentityTransform(), m.Live())

	m.HandleEvent(move(pt(60, 0)))
	assert.Equal(t, 60.0, m.Live().X)
}

func TestDragCenterSnap(t *testing.T) {
	rec := &recorder{}
	m := newMachine(document.TransformState{X: 60, Y: 60, Scale: 1}, rec.hooks())
	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(move(pt(-52, -55)))
	assert.Equal(t, 0.0, m.Live().X)
	assert.Equal(t, 0.0, m.Live().Y)
	assert.True(t, m.Guides().Center)
}

func TestDragClampsToCanvas(t *testing.T) {
	m := newMachine(document.IdentityTransform(), Hooks{})
	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(move(pt(1000, -1000)))
	m.HandleEvent(up(epoch))
	// 200 - 50 + 50
	assert.Equal(t, 200.0, m.Transform().X)
	assert.Equal(t, -200.0, m.Transform().Y)
}

func TestPinchScale(t *testing.T) {
	tests := []struct {
		name string
		to   float64
		want float64
	}{
		{"within range", 260, 2.6},
		{"clamped high", 500, 3.0},
		{"clamped low", 10, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(document.IdentityTransform(), Hooks{})
			m.HandleEvent(down(epoch, pt(0, 0), pt(100, 0)))
			require.Equal(t, TwoTouch, m.State())

			m.HandleEvent(move(pt(0, 0), pt(tt.to, 0)))
			assert.InDelta(t, tt.want, m.Live().Scale, 1e-9)

			m.HandleEvent(up(epoch))
			assert.InDelta(t, tt.want, m.Transform().Scale, 1e-9)
			assert.LessOrEqual(t, m.Transform().Scale, 3.0)
			assert.GreaterOrEqual(t, m.Transform().Scale, 0.5)
		})
	}
}

func TestPinchZeroBaselineDistance(t *testing.T) {
	m := newMachine(document.IdentityTransform(), Hooks{})
	m.HandleEvent(down(epoch, pt(50, 50), pt(50, 50)))
	m.HandleEvent(move(pt(50, 50), pt(150, 50)))
	assert.Equal(t, 1.0, m.Live().Scale)

	assert.Equal(t, 0.0, m.Live().Rotation)

	// The first non-degenerate frame became the baseline.
	m.HandleEvent(move(pt(50, 50), pt(250, 50)))
	assert.InDelta(t, 2.0, m.Live().Scale, 1e-9)
	assert.InDelta(t, 0.0, m.Live().Rotation, 1e-9)
}

func TestPinchCoincidentStartDoesNotRotate(t *testing.T) {
	m := newMachine(document.IdentityTransform(), Hooks{})
	m.HandleEvent(down(epoch, pt(5, 5), pt(5, 5)))
	m.HandleEvent(move(pt(5, 5), pt(5, 5)))
	m.HandleEvent(move(pt(0, 0), pt(50, 0)))
	assert.Equal(t, document.IdentityTransform(), m.Live())

	m.HandleEvent(up(epoch))
	got := m.Transform()
	assert.InDelta(t, 0.0, got.Rotation, 1e-9)
	assert.InDelta(t, 1.0, got.Scale, 1e-9)
	assert.InDelta(t, 0.0, got.X, 1e-9)
	assert.InDelta(t, 0.0, got.Y, 1e-9)
}

func TestRotationNormalizedOnCommit(t *testing.T) {
	m := newMachine(document.TransformState{Scale: 1, Rotation: 170}, Hooks{})
	m.HandleEvent(down(epoch, pt(100, 0), pt(0, 0)))
	rad := 30 * math.Pi / 180
	m.HandleEvent(move(pt(100*math.Cos(rad), 100*math.Sin(rad)), pt(0, 0)))
	assert.InDelta(t, 200, m.Live().Rotation, 1e-9)

	m.HandleEvent(up(epoch))
	assert.InDelta(t, -160, m.Transform().Rotation, 1e-9)
	assert.InDelta(t, 1, m.Transform().Scale, 1e-9)
}

func TestPinchNearEdgeClampedAtFinalScale(t *testing.T) {
	m := newMachine(document.TransformState{X: 190, Scale: 1}, Hooks{})
	m.HandleEvent(down(epoch, pt(0, 0), pt(100, 0)))
	m.HandleEvent(move(pt(0, 0), pt(300, 0)))
	m.HandleEvent(up(epoch))
	// At scale 3 the half width is 150: 200 - 150 + 50.
	assert.InDelta(t, 100, m.Transform().X, 1e-9)
}

func TestTwoTouchBackToDrag(t *testing.T) {
	m := newMachine(document.IdentityTransform(), Hooks{})
	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(down(epoch, pt(0, 0), pt(100, 0)))
	require.Equal(t, TwoTouch, m.State())
	m.HandleEvent(move(pt(0, 0), pt(200, 0)))

	m.HandleEvent(up(epoch, pt(0, 0)))
	require.Equal(t, Dragging, m.State())
	m.HandleEvent(move(pt(-80, 0)))
	assert.Equal(t, -80.0, m.Live().X)
	assert.InDelta(t, 2, m.Live().Scale, 1e-9)
}

func TestDeniedGrant(t *testing.T) {
	rec := &recorder{}
	hooks := rec.hooks()
	var asked []string
	hooks.Access = func(id string) bool {
		asked = append(asked, id)
		return false
	}
	arb := NewArbiter()
	caps := AllCapabilities()
	caps.Gated = true
	caps.FeatureID = "premium-stickers"
	m := NewMachine(Item{ID: "stk_p", Size: sticker, Transform: document.IdentityTransform(), Caps: caps},
		canvas, DefaultConfig(), arb, hooks)

	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(move(pt(80, 0)))
	m.HandleEvent(up(epoch))

	assert.Equal(t, []string{"premium-stickers"}, asked)
	assert.Equal(t, Idle, m.State())
	assert.False(t, arb.Active())
	assert.Empty(t, rec.selected)
	assert.Empty(t, rec.updates)
	assert.Equal(t, document.IdentityTransform(), m.Transform())
}

func TestSingleCapture(t *testing.T) {
	arb := NewArbiter()
	a := NewMachine(Item{ID: "a", Size: sticker, Transform: document.IdentityTransform(), Caps: AllCapabilities()},
		canvas, DefaultConfig(), arb, Hooks{})
	b := NewMachine(Item{ID: "b", Size: sticker, Transform: document.IdentityTransform(), Caps: AllCapabilities()},
		canvas, DefaultConfig(), arb, Hooks{})

	a.HandleEvent(down(epoch, pt(0, 0)))
	b.HandleEvent(down(epoch, pt(10, 0)))
	assert.True(t, a.Active())
	assert.False(t, b.Active())

	a.HandleEvent(up(epoch))
	b.HandleEvent(down(epoch, pt(10, 0)))
	assert.True(t, b.Active())
	owner, ok := arb.Owner()
	assert.True(t, ok)
	assert.Equal(t, "b", owner)
}

func TestTerminationRefusedWhileActive(t *testing.T) {
	m := newMachine(document.IdentityTransform(), Hooks{})
	assert.True(t, m.RequestTermination())

	m.HandleEvent(down(epoch, pt(0, 0)))
	assert.False(t, m.RequestTermination())

	m.HandleEvent(up(epoch))
	assert.True(t, m.RequestTermination())
}

func TestCancelCommitsReachedState(t *testing.T) {
	rec := &recorder{}
	m := newMachine(document.IdentityTransform(), rec.hooks())
	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(move(pt(-60, 0)))
	m.HandleEvent(TouchEvent{Phase: PhaseCancel})

	assert.Equal(t, Idle, m.State())
	require.Len(t, rec.updates, 1)
	assert.Equal(t, -60.0, rec.updates[0].X)
	assert.False(t, m.Terminate())
}

func TestDoubleTapSpringsToIdentity(t *testing.T) {
	rec := &recorder{}
	m := newMachine(document.TransformState{X: 50, Y: -40, Scale: 2, Rotation: 45}, rec.hooks())

	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(up(epoch))
	assert.False(t, m.Resetting())

	second := epoch.Add(120 * time.Millisecond)
	m.HandleEvent(down(second, pt(0, 0)))
	m.HandleEvent(up(second))
	require.True(t, m.Resetting())

	assert.True(t, m.Tick(16*time.Millisecond))
	live := m.Live()
	assert.Less(t, math.Abs(live.X), 50.0)
	assert.Equal(t, 50.0, m.Transform().X)

	for i := 0; i < 1000 && m.Resetting(); i++ {
		m.Tick(16 * time.Millisecond)
	}
	assert.False(t, m.Resetting())
	assert.Equal(t, document.IdentityTransform(), m.Transform())
	assert.Equal(t, document.IdentityTransform(), m.Live())
	assert.Equal(t, document.IdentityTransform(), rec.updates[len(rec.updates)-1])
}

func TestSlowTapsAreNotDoubleTap(t *testing.T) {
	m := newMachine(document.TransformState{X: 50, Scale: 1}, Hooks{})
	m.HandleEvent(down(epoch, pt(0, 0)))
	m.HandleEvent(up(epoch))
	late := epoch.Add(time.Second)
	m.HandleEvent(down(late, pt(0, 0)))
	m.HandleEvent(up(late))
	assert.False(t, m.Resetting())
}

func TestGrantDuringResetKeepsLivePosition(t *testing.T) {
	m := newMachine(document.TransformState{X: 100, Scale: 1}, Hooks{})
	require.True(t, m.DoubleTap())
	m.Tick(50 * time.Millisecond)
	mid := m.Live()

	m.HandleEvent(down(epoch, pt(0, 0)))
	assert.False(t, m.Resetting())
	assert.Equal(t, mid, m.Transform())
}

func TestDoubleTapIgnoredWhileActive(t *testing.T) {
	m := newMachine(document.IdentityTransform(), Hooks{})
	m.HandleEvent(down(epoch, pt(0, 0)))
	assert.False(t, m.DoubleTap())
}

func TestDragDisabled(t *testing.T) {
	caps := AllCapabilities()
	caps.Drag = false
	m := NewMachine(Item{ID: "t", Size: sticker, Transform: document.IdentityTransform(), Caps: caps},
		canvas, DefaultConfig(), nil, Hooks{})
	m.HandleEvent(down(epoch, pt(0, 0)))
	assert.Equal(t, Idle, m.State())

	m.HandleEvent(down(epoch, pt(0, 0), pt(100, 0)))
	assert.Equal(t, TwoTouch, m.State())
}
