package gesture

import (
	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
)

// Delta is a change relative to the baseline: translation and rotation are
// additive, scale is a multiplier.
type Delta struct {
	X, Y     float64
	Scale    float64
	Rotation float64
}

// NoDelta leaves the baseline unchanged.
func NoDelta() Delta { return Delta{Scale: 1} }

// Value holds an item's transform while it is being manipulated. The
// committed state is the only one visible to the rest of the system; live is
// baseline with the current gesture delta applied.
type Value struct {
	committed document.TransformState
	baseline  document.TransformState
	live      document.TransformState
}

func NewValue(t document.TransformState) *Value {
	t = t.Normalized()
	return &Value{committed: t, baseline: t, live: t}
}

// SetBaseline starts a manipulation from the committed state.
func (v *Value) SetBaseline() {
	v.baseline = v.committed
	v.live = v.committed
}

// Rebase folds the current live state into the baseline without committing,
// used when a gesture changes shape mid-flight.
func (v *Value) Rebase() {
	v.baseline = v.live
}

func (v *Value) ApplyDelta(d Delta) {
	if d.Scale <= 0 {
		d.Scale = 1
	}
	v.live = document.TransformState{
		X:        v.baseline.X + d.X,
		Y:        v.baseline.Y + d.Y,
		Scale:    v.baseline.Scale * d.Scale,
		Rotation: v.baseline.Rotation + d.Rotation,
	}
}

// SetLive overrides the live state, used by the reset animation.
func (v *Value) SetLive(t document.TransformState) {
	v.live = t
}

// Commit makes the live state authoritative. constrain, when non-nil, may
// adjust the final state first. Rotation is normalized into (-180, 180].
func (v *Value) Commit(constrain func(document.TransformState) document.TransformState) document.TransformState {
	t := v.live
	if constrain != nil {
		t = constrain(t)
	}
	t.Rotation = geometry.NormalizeAngle(t.Rotation)
	v.committed, v.baseline, v.live = t, t, t
	return t
}

// Set replaces every stage with t.
func (v *Value) Set(t document.TransformState) {
	t = t.Normalized()
	v.committed, v.baseline, v.live = t, t, t
}

func (v *Value) Committed() document.TransformState { return v.committed }
func (v *Value) Baseline() document.TransformState  { return v.baseline }
func (v *Value) Live() document.TransformState      { return v.live }
