package gesture

import (
	"time"

	"github.com/inamate/collage/internal/geometry"
)

type Phase string

const (
	PhaseDown   Phase = "down"
	PhaseMove   Phase = "move"
	PhaseUp     Phase = "up"
	PhaseCancel Phase = "cancel"
)

// TouchEvent is one sample of the touch stream for an item. Touches holds the
// absolute positions of the touches still down, in a stable order. Count is
// the number of active touches after the event; when zero it defaults to
// len(Touches).
type TouchEvent struct {
	Phase   Phase            `json:"phase"`
	Count   int              `json:"count"`
	Touches []geometry.Point `json:"touches"`
	Time    time.Time        `json:"time"`
}

// Active returns the number of touches down after the event.
func (e TouchEvent) Active() int {
	if e.Count > 0 {
		return e.Count
	}
	return len(e.Touches)
}

func (e TouchEvent) first() (geometry.Point, bool) {
	if len(e.Touches) == 0 {
		return geometry.Point{}, false
	}
	return e.Touches[0], true
}

func (e TouchEvent) pair() (geometry.Point, geometry.Point, bool) {
	if len(e.Touches) < 2 {
		return geometry.Point{}, geometry.Point{}, false
	}
	return e.Touches[0], e.Touches[1], true
}
