package canvas

import (
	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
)

// Hit is the topmost thing under a point.
type Hit struct {
	ID   string            `json:"id"`
	Kind document.ItemKind `json:"kind"`
}

// HitTest returns the frontmost item or frame containing the canvas point
// (x, y). Rotated items are tested in their own coordinates.
func (c *Canvas) HitTest(x, y float64, live LiveFunc) (Hit, bool) {
	p := geometry.Point{X: x, Y: y}

	items := c.items(live)
	for i := len(items) - 1; i >= 0; i-- {
		if contains(items[i].matrix, items[i].local, p) {
			return Hit{ID: items[i].item.ID, Kind: items[i].item.Kind}, true
		}
	}

	frames := c.frames()
	for i := len(frames) - 1; i >= 0; i-- {
		if contains(frames[i].matrix, frames[i].local, p) {
			return Hit{ID: frames[i].frame.ID, Kind: document.KindPhoto}, true
		}
	}
	return Hit{}, false
}

func contains(m geometry.Matrix2D, local geometry.Rect, p geometry.Point) bool {
	inv, ok := m.Invert()
	if !ok {
		return false
	}
	q := inv.Apply(p)
	return local.Contains(q.X, q.Y)
}

// TapOutcome says what a tap did.
type TapOutcome string

const (
	TapIgnored        TapOutcome = "ignored"
	TapSelected       TapOutcome = "selected"
	TapDeselected     TapOutcome = "deselected"
	TapPhotoRequested TapOutcome = "photo_requested"
)

// TapResult is the outcome of a tap and the item or frame it concerned.
type TapResult struct {
	Outcome TapOutcome        `json:"outcome"`
	ID      string            `json:"id,omitempty"`
	Kind    document.ItemKind `json:"kind,omitempty"`
}

// TapFrame handles a tap on a frame: an occupied frame becomes the selection,
// an empty one is handed to the photo picker.
func (c *Canvas) TapFrame(frameID string) (TapResult, error) {
	if c.readOnly {
		return TapResult{Outcome: TapIgnored}, nil
	}
	if _, ok := c.template.Frame(frameID); !ok {
		return TapResult{Outcome: TapIgnored}, ErrFrameNotFound
	}
	if _, filled := c.photos[frameID]; filled {
		c.selection.Select(frameID, document.KindPhoto)
		return TapResult{Outcome: TapSelected, ID: frameID, Kind: document.KindPhoto}, nil
	}
	if c.picker != nil {
		c.picker.RequestPhoto(frameID)
	}
	return TapResult{Outcome: TapPhotoRequested, ID: frameID, Kind: document.KindPhoto}, nil
}

// Tap routes a tap at a canvas point: items are selected, frames go through
// TapFrame, and empty space clears the selection.
func (c *Canvas) Tap(x, y float64, live LiveFunc) TapResult {
	if c.readOnly {
		return TapResult{Outcome: TapIgnored}
	}
	hit, ok := c.HitTest(x, y, live)
	if !ok {
		c.selection.Deselect()
		return TapResult{Outcome: TapDeselected}
	}
	if hit.Kind == document.KindPhoto {
		res, _ := c.TapFrame(hit.ID)
		return res
	}
	c.selection.Select(hit.ID, hit.Kind)
	return TapResult{Outcome: TapSelected, ID: hit.ID, Kind: hit.Kind}
}
