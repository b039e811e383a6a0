// Package canvas is the composition model of a collage: template frames with
// their assigned photos, the sticker and text overlay layers, and the single
// selection. It renders to a flat list of draw commands and routes taps.
package canvas

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
	"github.com/inamate/collage/internal/snap"
)

// DefaultWidth is the canvas width used when none is given.
const DefaultWidth = 360

var (
	ErrFrameNotFound = errors.New("frame not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrDuplicateItem = errors.New("item already exists")
	ErrInvalidKind   = errors.New("item kind must be sticker or text")
)

// ItemSize is the intrinsic size of an overlay item before scaling.
func ItemSize(kind document.ItemKind) geometry.Size {
	if kind == document.KindText {
		return geometry.Size{Width: 150, Height: 50}
	}
	return geometry.Size{Width: 100, Height: 100}
}

// PhotoPicker is asked for a photo when an empty frame is tapped. It is
// expected to call back with an assignment later; the canvas never loads
// images itself.
type PhotoPicker interface {
	RequestPhoto(frameID string)
}

// PhotoPickerFunc adapts a function to PhotoPicker.
type PhotoPickerFunc func(frameID string)

func (f PhotoPickerFunc) RequestPhoto(frameID string) { f(frameID) }

// Canvas is not safe for concurrent use.
type Canvas struct {
	template document.Template
	size     geometry.Size

	photos   map[string]string
	stickers []*document.CanvasItem
	texts    []*document.CanvasItem

	selection *SelectionManager
	picker    PhotoPicker
	readOnly  bool
	guides    snap.Guides
	guideAt   geometry.Point
}

// New creates an empty canvas for template, width units wide. The height
// follows the template's aspect ratio.
func New(template document.Template, width float64, selection *SelectionManager, picker PhotoPicker) *Canvas {
	if math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
		width = DefaultWidth
	}
	if selection == nil {
		selection = NewSelectionManager(nil, nil)
	}
	return &Canvas{
		template:  template,
		size:      geometry.Size{Width: width, Height: width * template.AspectRatio.HeightFactor()},
		photos:    make(map[string]string),
		selection: selection,
		picker:    picker,
	}
}

func (c *Canvas) Template() document.Template  { return c.template }
func (c *Canvas) Size() geometry.Size          { return c.size }
func (c *Canvas) Selection() *SelectionManager { return c.selection }
func (c *Canvas) ReadOnly() bool               { return c.readOnly }
func (c *Canvas) Guides() snap.Guides          { return c.guides }
func (c *Canvas) SetPhotoPicker(p PhotoPicker) { c.picker = p }

// SetGuides records the snap guides raised by the item being dragged and the
// item's offset from the canvas center.
func (c *Canvas) SetGuides(g snap.Guides, at geometry.Point) {
	c.guides = g
	c.guideAt = at
}

// SetReadOnly toggles read-only mode. Entering it drops the selection.
func (c *Canvas) SetReadOnly(v bool) {
	c.readOnly = v
	if v {
		c.selection.Deselect()
		c.guides = snap.Guides{}
	}
}

// AssignPhoto puts uri into frameID, replacing any previous photo. It returns
// the replaced URI, if any.
func (c *Canvas) AssignPhoto(frameID, uri string) (string, error) {
	if _, ok := c.template.Frame(frameID); !ok {
		return "", fmt.Errorf("%w: %s", ErrFrameNotFound, frameID)
	}
	prev := c.photos[frameID]
	c.photos[frameID] = uri
	return prev, nil
}

// RemovePhoto empties frameID and returns the URI it held.
func (c *Canvas) RemovePhoto(frameID string) (string, bool) {
	uri, ok := c.photos[frameID]
	if !ok {
		return "", false
	}
	delete(c.photos, frameID)
	c.selection.Forget(frameID)
	return uri, true
}

func (c *Canvas) PhotoURI(frameID string) (string, bool) {
	uri, ok := c.photos[frameID]
	return uri, ok
}

// Photos returns the assignments in template frame order.
func (c *Canvas) Photos() []document.PhotoAssignment {
	out := make([]document.PhotoAssignment, 0, len(c.photos))
	for _, f := range c.template.Frames {
		if uri, ok := c.photos[f.ID]; ok {
			out = append(out, document.PhotoAssignment{FrameID: f.ID, URI: uri})
		}
	}
	return out
}

func (c *Canvas) layer(kind document.ItemKind) *[]*document.CanvasItem {
	switch kind {
	case document.KindSticker:
		return &c.stickers
	case document.KindText:
		return &c.texts
	}
	return nil
}

// AddItem appends a sticker or text to the top of its layer.
func (c *Canvas) AddItem(item document.CanvasItem) error {
	layer := c.layer(item.Kind)
	if layer == nil {
		return ErrInvalidKind
	}
	if _, ok := c.Item(item.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateItem, item.ID)
	}
	item.Transform = item.Transform.Normalized()
	*layer = append(*layer, &item)
	return nil
}

// RemoveItem deletes a sticker or text and returns it.
func (c *Canvas) RemoveItem(id string) (document.CanvasItem, bool) {
	for _, layer := range []*[]*document.CanvasItem{&c.stickers, &c.texts} {
		for i, it := range *layer {
			if it.ID == id {
				*layer = slices.Delete(*layer, i, i+1)
				c.selection.Forget(id)
				return *it, true
			}
		}
	}
	return document.CanvasItem{}, false
}

// Item returns the live item with id. Callers may modify it.
func (c *Canvas) Item(id string) (*document.CanvasItem, bool) {
	for _, layer := range [][]*document.CanvasItem{c.stickers, c.texts} {
		for _, it := range layer {
			if it.ID == id {
				return it, true
			}
		}
	}
	return nil, false
}

// SetTransform stores the committed transform of an item.
func (c *Canvas) SetTransform(id string, t document.TransformState) error {
	it, ok := c.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	it.Transform = t.Normalized()
	return nil
}

// SetStyle replaces the style of a text item and returns the previous one.
func (c *Canvas) SetStyle(id string, style document.TextStyle) (document.TextStyle, error) {
	it, ok := c.Item(id)
	if !ok || it.Kind != document.KindText {
		return document.TextStyle{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	var prev document.TextStyle
	if it.Style != nil {
		prev = *it.Style
	}
	it.Style = &style
	return prev, nil
}

func cloneItems(items []*document.CanvasItem) []document.CanvasItem {
	out := make([]document.CanvasItem, len(items))
	for i, it := range items {
		out[i] = *it
		if it.Style != nil {
			s := *it.Style
			out[i].Style = &s
		}
	}
	return out
}

func (c *Canvas) Stickers() []document.CanvasItem { return cloneItems(c.stickers) }
func (c *Canvas) Texts() []document.CanvasItem    { return cloneItems(c.texts) }

// Collage captures the committed composition. Identity and timestamps are
// left for the caller.
func (c *Canvas) Collage() document.Collage {
	return document.Collage{
		TemplateID: c.template.ID,
		Photos:     c.Photos(),
		Stickers:   c.Stickers(),
		Texts:      c.Texts(),
	}
}

// Load replaces the canvas content with a saved collage. Entries that cannot
// be placed (photos for frames the template lacks, repeated item ids) are
// skipped and reported together in the returned error; the rest is loaded.
func (c *Canvas) Load(col document.Collage) error {
	var errs []error
	c.photos = make(map[string]string, len(col.Photos))
	for _, p := range col.Photos {
		if _, ok := c.template.Frame(p.FrameID); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrFrameNotFound, p.FrameID))
			continue
		}
		c.photos[p.FrameID] = p.URI
	}
	c.stickers, c.texts = nil, nil
	for _, it := range col.Stickers {
		it.Kind = document.KindSticker
		if err := c.AddItem(it); err != nil {
			errs = append(errs, err)
		}
	}
	for _, it := range col.Texts {
		it.Kind = document.KindText
		if err := c.AddItem(it); err != nil {
			errs = append(errs, err)
		}
	}
	c.selection.Deselect()
	return errors.Join(errs...)
}
