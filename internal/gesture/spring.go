package gesture

import (
	"math"
	"time"

	"github.com/inamate/collage/internal/document"
)

const (
	springStep        = time.Second / 240
	springMaxDuration = 5 * time.Second
	restDisplacement  = 0.001
	restSpeed         = 0.001
	defaultStiffness  = 300
	defaultDamping    = 30
)

type SpringConfig struct {
	Stiffness float64
	Damping   float64
}

// DefaultSpring returns stiffness 300, damping 30, unit mass.
func DefaultSpring() SpringConfig {
	return SpringConfig{Stiffness: defaultStiffness, Damping: defaultDamping}
}

type spring struct {
	pos, vel, target float64
}

func (s *spring) step(cfg SpringConfig, dt float64) {
	accel := -cfg.Stiffness*(s.pos-s.target) - cfg.Damping*s.vel
	s.vel += accel * dt
	s.pos += s.vel * dt
}

func (s *spring) atRest() bool {
	return math.Abs(s.pos-s.target) < restDisplacement && math.Abs(s.vel) < restSpeed
}

// Reset animates a transform back to identity. Each component settles on its
// own spring; once all are at rest the result is exactly the identity.
type Reset struct {
	cfg     SpringConfig
	x, y    spring
	scale   spring
	rot     spring
	elapsed time.Duration
	done    bool
}

func NewReset(from document.TransformState, cfg SpringConfig) *Reset {
	if cfg.Stiffness <= 0 {
		cfg.Stiffness = defaultStiffness
	}
	if cfg.Damping < 0 {
		cfg.Damping = defaultDamping
	}
	return &Reset{
		cfg:   cfg,
		x:     spring{pos: from.X},
		y:     spring{pos: from.Y},
		scale: spring{pos: from.Scale, target: 1},
		rot:   spring{pos: from.Rotation},
	}
}

// Step advances the animation by dt and returns the current transform and
// whether it has settled.
func (r *Reset) Step(dt time.Duration) (document.TransformState, bool) {
	if r.done {
		return document.IdentityTransform(), true
	}
	for dt > 0 {
		h := min(dt, springStep)
		dt -= h
		r.elapsed += h
		sec := h.Seconds()
		r.x.step(r.cfg, sec)
		r.y.step(r.cfg, sec)
		r.scale.step(r.cfg, sec)
		r.rot.step(r.cfg, sec)

		if r.settled() {
			r.done = true
			return document.IdentityTransform(), true
		}
	}
	return document.TransformState{
		X:        r.x.pos,
		Y:        r.y.pos,
		Scale:    r.scale.pos,
		Rotation: r.rot.pos,
	}, false
}

func (r *Reset) settled() bool {
	if r.elapsed >= springMaxDuration {
		return true
	}
	return r.x.atRest() && r.y.atRest() && r.scale.atRest() && r.rot.atRest()
}

func (r *Reset) Done() bool { return r.done }
