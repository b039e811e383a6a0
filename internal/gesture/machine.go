package gesture

import (
	"time"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
	"github.com/inamate/collage/internal/snap"
)

// minBaselineDistance guards the pinch ratio against coincident touches.
const minBaselineDistance = 1e-6

type State int

const (
	Idle State = iota
	Dragging
	TwoTouch
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case TwoTouch:
		return "two_touch"
	}
	return "unknown"
}

// Config holds the engine-wide gesture tunables.
type Config struct {
	MinScale        float64
	MaxScale        float64
	Snap            snap.Config
	DragThreshold   float64
	DoubleTapWindow time.Duration
	Spring          SpringConfig
	// Clock stamps events that arrive without a time. Defaults to time.Now.
	Clock func() time.Time
}

func DefaultConfig() Config {
	return Config{
		MinScale:        0.5,
		MaxScale:        3.0,
		Snap:            snap.DefaultConfig(),
		DragThreshold:   5,
		DoubleTapWindow: 300 * time.Millisecond,
		Spring:          DefaultSpring(),
	}
}

// Capabilities are the per-item switches. Gated items must be granted
// FeatureID by the access hook before any gesture starts.
type Capabilities struct {
	Drag       bool
	Scale      bool
	Rotate     bool
	SnapGrid   bool
	SnapCenter bool
	Gated      bool
	FeatureID  string
}

// AllCapabilities enables every manipulation and both snaps.
func AllCapabilities() Capabilities {
	return Capabilities{Drag: true, Scale: true, Rotate: true, SnapGrid: true, SnapCenter: true}
}

// Hooks connect a machine to its collaborators. Every hook is optional.
type Hooks struct {
	// Access is the capability check consulted at grant time for gated items.
	Access func(featureID string) bool
	// Select fires when a gesture is granted.
	Select func(id string)
	// Update fires with the committed transform on release, termination and
	// when a reset animation settles.
	Update func(id string, t document.TransformState)
	// Guides fires whenever the snap guides change.
	Guides func(id string, g snap.Guides)
}

// Item describes the manipulated item.
type Item struct {
	ID        string
	Size      geometry.Size
	Transform document.TransformState
	Caps      Capabilities
}

// Machine is the gesture state machine of a single item.
type Machine struct {
	id     string
	size   geometry.Size
	canvas geometry.Size
	caps   Capabilities
	cfg    Config
	arb    *Arbiter
	hooks  Hooks

	state State
	value *Value

	// drag
	dragStart geometry.Point
	engaged   bool

	// two touch
	baseDistance float64
	baseAngle    float64
	scaling      bool
	rotating     bool

	// tap recognition
	downAt     geometry.Point
	travel     float64
	maxTouches int
	taps       TapDetector

	reset  *Reset
	guides snap.Guides
}

func NewMachine(item Item, canvas geometry.Size, cfg Config, arb *Arbiter, hooks Hooks) *Machine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if arb == nil {
		arb = NewArbiter()
	}
	return &Machine{
		id:     item.ID,
		size:   item.Size,
		canvas: canvas,
		caps:   item.Caps,
		cfg:    cfg,
		arb:    arb,
		hooks:  hooks,
		value:  NewValue(item.Transform),
		taps:   TapDetector{Window: cfg.DoubleTapWindow},
	}
}

func (m *Machine) ID() string      { return m.id }
func (m *Machine) State() State    { return m.state }
func (m *Machine) Active() bool    { return m.state != Idle }
func (m *Machine) Resetting() bool { return m.reset != nil }

// Transform returns the committed transform.
func (m *Machine) Transform() document.TransformState { return m.value.Committed() }

// Live returns what should be drawn right now, including any in-flight
// gesture or reset animation.
func (m *Machine) Live() document.TransformState { return m.value.Live() }

func (m *Machine) Guides() snap.Guides { return m.guides }

// SetTransform replaces the committed transform, for example when an edit is
// undone. It is ignored while a gesture is active.
func (m *Machine) SetTransform(t document.TransformState) bool {
	if m.Active() {
		return false
	}
	m.reset = nil
	m.value.Set(t)
	return true
}

// SetCanvas updates the canvas size used for boundary clamping.
func (m *Machine) SetCanvas(size geometry.Size) { m.canvas = size }

// RequestTermination is asked by an ancestor gesture recognizer (a scroll
// container, say) that wants the touch stream. It is refused while a gesture
// is active.
func (m *Machine) RequestTermination() bool {
	return !m.Active()
}

// HandleEvent feeds one touch event into the machine.
func (m *Machine) HandleEvent(ev TouchEvent) {
	if ev.Time.IsZero() {
		ev.Time = m.cfg.Clock()
	}

	switch ev.Phase {
	case PhaseDown:
		switch m.state {
		case Idle:
			m.grant(ev)
		case Dragging:
			if ev.Active() >= 2 {
				m.enterTwoTouch(ev)
			}
		}
	case PhaseMove:
		switch m.state {
		case Dragging:
			if ev.Active() >= 2 {
				m.enterTwoTouch(ev)
				return
			}
			m.drag(ev)
		case TwoTouch:
			if ev.Active() >= 2 {
				m.pinch(ev)
			}
		}
	case PhaseUp:
		if m.state == Idle {
			return
		}
		switch remaining := ev.Active(); {
		case remaining == 0:
			m.release(ev, true)
		case remaining == 1 && m.state == TwoTouch:
			m.leaveTwoTouch(ev)
		}
	case PhaseCancel:
		m.Terminate()
	}
}

// Terminate force-ends an active gesture, committing whatever it reached.
func (m *Machine) Terminate() bool {
	if !m.Active() {
		return false
	}
	m.release(TouchEvent{}, false)
	return true
}

func (m *Machine) grant(ev TouchEvent) {
	count := ev.Active()
	if count == 0 {
		return
	}
	if count == 1 && !m.caps.Drag {
		return
	}
	if count >= 2 && !m.caps.Scale && !m.caps.Rotate && !m.caps.Drag {
		return
	}
	if m.caps.Gated && m.hooks.Access != nil && !m.hooks.Access(m.caps.FeatureID) {
		return
	}
	if !m.arb.Acquire(m.id) {
		return
	}

	if m.reset != nil {
		// Pick up from wherever the reset animation got to.
		m.value.Set(m.value.Live())
		m.reset = nil
	}

	m.value.SetBaseline()
	m.travel = 0
	m.maxTouches = count
	if p, ok := ev.first(); ok {
		m.downAt = p
	}

	if m.hooks.Select != nil {
		m.hooks.Select(m.id)
	}

	if count >= 2 {
		m.enterTwoTouch(ev)
		return
	}
	m.state = Dragging
	m.dragStart = m.downAt
	m.engaged = false
}

func (m *Machine) enterTwoTouch(ev TouchEvent) {
	a, b, ok := ev.pair()
	if !ok {
		return
	}
	m.value.Rebase()
	m.maxTouches = max(m.maxTouches, 2)
	m.baseDistance = geometry.Distance(a, b)
	m.baseAngle = geometry.Angle(a, b)
	m.scaling = m.caps.Scale
	m.rotating = m.caps.Rotate
	m.state = TwoTouch
}

func (m *Machine) leaveTwoTouch(ev TouchEvent) {
	m.value.Rebase()
	if !m.caps.Drag {
		return
	}
	p, ok := ev.first()
	if !ok {
		return
	}
	m.state = Dragging
	m.dragStart = p
	m.engaged = true
}

func (m *Machine) drag(ev TouchEvent) {
	p, ok := ev.first()
	if !ok {
		return
	}
	m.travel = max(m.travel, geometry.Distance(p, m.downAt))

	delta := p.Sub(m.dragStart)
	if !m.engaged {
		if geometry.Distance(p, m.dragStart) < m.cfg.DragThreshold {
			return
		}
		m.engaged = true
	}

	base := m.value.Baseline()
	candidate := geometry.Point{X: base.X + delta.X, Y: base.Y + delta.Y}
	res := m.cfg.Snap.Apply(candidate, m.canvas, m.size, m.value.Live().Scale, snap.Options{
		Grid:   m.caps.SnapGrid,
		Center: m.caps.SnapCenter,
	})

	m.value.ApplyDelta(Delta{
		X:     res.Position.X - base.X,
		Y:     res.Position.Y - base.Y,
		Scale: 1,
	})
	m.setGuides(res.Guides)
}

func (m *Machine) pinch(ev TouchEvent) {
	a, b, ok := ev.pair()
	if !ok {
		return
	}
	dist := geometry.Distance(a, b)
	angle := geometry.Angle(a, b)
	if m.baseDistance < minBaselineDistance {
		// Coincident touches have no usable distance or angle: adopt this
		// frame as the baseline and leave the transform alone.
		m.baseDistance = dist
		m.baseAngle = angle
		m.value.Rebase()
		return
	}

	base := m.value.Baseline()
	d := NoDelta()
	if m.scaling {
		want := geometry.Clamp(base.Scale*dist/m.baseDistance, m.cfg.MinScale, m.cfg.MaxScale)
		d.Scale = want / base.Scale
	}
	if m.rotating {
		d.Rotation = angle - m.baseAngle
	}
	m.value.ApplyDelta(d)
}

func (m *Machine) release(ev TouchEvent, natural bool) {
	committed := m.value.Commit(m.constrain)
	m.state = Idle
	m.scaling, m.rotating, m.engaged = false, false, false
	m.arb.Release(m.id)
	m.setGuides(snap.Guides{})

	if m.hooks.Update != nil {
		m.hooks.Update(m.id, committed)
	}

	if !natural || m.maxTouches > 1 || m.travel >= m.cfg.DragThreshold {
		m.taps.Clear()
		return
	}
	if m.taps.Tap(ev.Time) {
		m.DoubleTap()
	}
}

// constrain keeps the committed position inside the padded canvas at the
// final scale, so a pinch near an edge cannot leave the item out of bounds.
func (m *Machine) constrain(t document.TransformState) document.TransformState {
	t.Scale = geometry.Clamp(t.Scale, m.cfg.MinScale, m.cfg.MaxScale)
	p := m.cfg.Snap.BoundsFor(m.canvas, m.size, t.Scale).Clamp(geometry.Point{X: t.X, Y: t.Y})
	t.X, t.Y = p.X, p.Y
	return t
}

func (m *Machine) setGuides(g snap.Guides) {
	if g == m.guides {
		return
	}
	m.guides = g
	if m.hooks.Guides != nil {
		m.hooks.Guides(m.id, g)
	}
}

// DoubleTap starts the spring back to the identity transform. It does nothing
// while a gesture is active.
func (m *Machine) DoubleTap() bool {
	if m.Active() {
		return false
	}
	m.reset = NewReset(m.value.Live(), m.cfg.Spring)
	return true
}

// Tick advances a running reset animation by dt. It reports whether the live
// transform changed.
func (m *Machine) Tick(dt time.Duration) bool {
	if m.reset == nil {
		return false
	}
	t, done := m.reset.Step(dt)
	if !done {
		m.value.SetLive(t)
		return true
	}
	m.reset = nil
	m.value.Set(document.IdentityTransform())
	if m.hooks.Update != nil {
		m.hooks.Update(m.id, m.value.Committed())
	}
	return true
}
