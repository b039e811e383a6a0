package session

import (
	"log/slog"
	"time"

	"github.com/inamate/collage/internal/canvas"
	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/premium"
)

type Option func(*Editor)

// WithGate sets the capability check consulted when a premium item is
// grabbed. Without it every feature is granted.
func WithGate(c premium.Checker) Option {
	return func(e *Editor) { e.gate = c }
}

func WithPhotoPicker(p canvas.PhotoPicker) Option {
	return func(e *Editor) { e.picker = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.log = l }
}

func WithReadOnly(v bool) Option {
	return func(e *Editor) { e.readOnly = v }
}

func WithCanvasWidth(w float64) Option {
	return func(e *Editor) { e.width = w }
}

// WithTransformListener is called with every committed transform.
func WithTransformListener(fn func(id string, t document.TransformState)) Option {
	return func(e *Editor) { e.onTransform = fn }
}

func WithSelectionListener(onSelect func(canvas.Selection), onDeselect func()) Option {
	return func(e *Editor) {
		e.onSelect = onSelect
		e.onDeselect = onDeselect
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}
