package canvas

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
)

const (
	backgroundFill = "#F5F5F5"
	emptyFrameFill = "#E5E5E5"
	selectionColor = "#6366F1"
	removeFill     = "#EF4444"
	guideColor     = "#06B6D4"
	defaultText    = "#FFFFFF"
	defaultFont    = 24

	removeRadius = 14
)

// DrawCommand is a single drawing operation for the client, in painter's
// order. Transform is an [a b c d e f] affine matrix mapping the command's
// local rect to canvas coordinates.
type DrawCommand struct {
	Op        string              `json:"op"` // rect, frame, image, text, selection, remove, guide, save, clip, restore
	ObjectID  string              `json:"objectId,omitempty"`
	Kind      document.ItemKind   `json:"kind,omitempty"`
	Transform []float64           `json:"transform,omitempty"`
	Rect      *geometry.Rect      `json:"rect,omitempty"`
	Fill      string              `json:"fill,omitempty"`
	Stroke    string              `json:"stroke,omitempty"`
	Width     float64             `json:"strokeWidth,omitempty"`
	URI       string              `json:"uri,omitempty"`
	Text      string              `json:"text,omitempty"`
	Style     *document.TextStyle `json:"style,omitempty"`
	Premium   bool                `json:"premium,omitempty"`
}

// LiveFunc reports the transform an item should be drawn with right now, if
// it differs from the committed one.
type LiveFunc func(id string) (document.TransformState, bool)

type placedFrame struct {
	frame  document.Frame
	index  int
	matrix geometry.Matrix2D
	local  geometry.Rect
}

// frames returns the template frames in paint order: zIndex ascending with
// the template index as tiebreak. A frame without zIndex counts as zero.
func (c *Canvas) frames() []placedFrame {
	out := make([]placedFrame, len(c.template.Frames))
	for i, f := range c.template.Frames {
		w := f.Width / 100 * c.size.Width
		h := f.Height / 100 * c.size.Height
		cx := f.X/100*c.size.Width + w/2
		cy := f.Y/100*c.size.Height + h/2
		out[i] = placedFrame{
			frame:  f,
			index:  i,
			matrix: geometry.ItemTransform(cx, cy, 0, 0, 1, f.Rotation),
			local:  geometry.Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h},
		}
	}
	slices.SortStableFunc(out, func(a, b placedFrame) int {
		return cmp.Or(cmp.Compare(zIndex(a.frame.ZIndex), zIndex(b.frame.ZIndex)), cmp.Compare(a.index, b.index))
	})
	return out
}

func zIndex(z *int) int {
	if z == nil {
		return 0
	}
	return *z
}

type placedItem struct {
	item   *document.CanvasItem
	matrix geometry.Matrix2D
	local  geometry.Rect
}

func (c *Canvas) place(it *document.CanvasItem, live LiveFunc) placedItem {
	t := it.Transform
	if live != nil {
		if lt, ok := live(it.ID); ok {
			t = lt
		}
	}
	size := ItemSize(it.Kind)
	return placedItem{
		item:   it,
		matrix: geometry.ItemTransform(c.size.Width/2, c.size.Height/2, t.X, t.Y, t.Scale, t.Rotation),
		local:  geometry.Rect{X: -size.Width / 2, Y: -size.Height / 2, Width: size.Width, Height: size.Height},
	}
}

// items returns both overlay layers, stickers first.
func (c *Canvas) items(live LiveFunc) []placedItem {
	out := make([]placedItem, 0, len(c.stickers)+len(c.texts))
	for _, it := range c.stickers {
		out = append(out, c.place(it, live))
	}
	for _, it := range c.texts {
		out = append(out, c.place(it, live))
	}
	return out
}

// Compose renders the canvas back to front: background, frames, stickers,
// texts, then the selection affordances and snap guides. Read-only canvases
// render the same content without affordances.
func (c *Canvas) Compose(live LiveFunc) []DrawCommand {
	full := geometry.Rect{Width: c.size.Width, Height: c.size.Height}
	cmds := []DrawCommand{{Op: "rect", Rect: &full, Fill: backgroundFill}}

	sel, hasSel := c.selection.Current()
	if c.readOnly {
		hasSel = false
	}
	var affordance []DrawCommand

	for _, pf := range c.frames() {
		m := pf.matrix.ToSlice()
		local := pf.local
		uri, filled := c.photos[pf.frame.ID]
		if !filled {
			cmds = append(cmds, DrawCommand{Op: "frame", ObjectID: pf.frame.ID, Kind: document.KindPhoto, Transform: m, Rect: &local, Fill: emptyFrameFill})
			continue
		}
		cmds = append(cmds,
			DrawCommand{Op: "save"},
			DrawCommand{Op: "clip", Transform: m, Rect: &local},
			DrawCommand{Op: "image", ObjectID: pf.frame.ID, Kind: document.KindPhoto, Transform: m, Rect: &local, URI: uri},
			DrawCommand{Op: "restore"},
		)
		if hasSel && sel.Kind == document.KindPhoto && sel.ID == pf.frame.ID {
			affordance = append(affordance, c.affordances(pf.frame.ID, document.KindPhoto, pf.matrix, local)...)
		}
	}

	for _, pi := range c.items(live) {
		it := pi.item
		m := pi.matrix.ToSlice()
		local := pi.local
		cmd := DrawCommand{ObjectID: it.ID, Kind: it.Kind, Transform: m, Rect: &local, Premium: it.IsPremium}
		if it.Kind == document.KindText {
			cmd.Op = "text"
			cmd.Text = it.ContentRef
			cmd.Style = textStyle(it.Style)
		} else {
			cmd.Op = "image"
			cmd.URI = it.ContentRef
		}
		cmds = append(cmds, cmd)
		if hasSel && sel.Kind == it.Kind && sel.ID == it.ID {
			affordance = append(affordance, c.affordances(it.ID, it.Kind, pi.matrix, local)...)
		}
	}

	cmds = append(cmds, affordance...)
	if !c.readOnly {
		cmds = append(cmds, c.guideCommands()...)
	}
	return cmds
}

func textStyle(s *document.TextStyle) *document.TextStyle {
	out := document.TextStyle{}
	if s != nil {
		out = *s
	}
	if out.FontSize <= 0 {
		out.FontSize = defaultFont
	}
	if out.Color == "" {
		out.Color = defaultText
	}
	return &out
}

// affordances draws the selection outline and the remove button at the
// item's top-right corner.
func (c *Canvas) affordances(id string, kind document.ItemKind, m geometry.Matrix2D, local geometry.Rect) []DrawCommand {
	corner := m.Apply(geometry.Point{X: local.X + local.Width, Y: local.Y})
	btn := geometry.Rect{X: corner.X - removeRadius, Y: corner.Y - removeRadius, Width: 2 * removeRadius, Height: 2 * removeRadius}
	return []DrawCommand{
		{Op: "selection", ObjectID: id, Kind: kind, Transform: m.ToSlice(), Rect: &local, Stroke: selectionColor, Width: 2},
		{Op: "remove", ObjectID: id, Kind: kind, Rect: &btn, Fill: removeFill},
	}
}

func (c *Canvas) guideCommands() []DrawCommand {
	w, h := c.size.Width, c.size.Height
	vertical := geometry.Rect{X: w / 2, Y: 0, Width: 0, Height: h}
	horizontal := geometry.Rect{X: 0, Y: h / 2, Width: w, Height: 0}
	var out []DrawCommand
	if c.guides.Vertical {
		line := geometry.Rect{X: w/2 + c.guideAt.X, Y: 0, Width: 0, Height: h}
		out = append(out, DrawCommand{Op: "guide", ObjectID: "grid-v", Rect: &line, Stroke: guideColor, Width: 1})
	}
	if c.guides.Horizontal {
		line := geometry.Rect{X: 0, Y: h/2 + c.guideAt.Y, Width: w, Height: 0}
		out = append(out, DrawCommand{Op: "guide", ObjectID: "grid-h", Rect: &line, Stroke: guideColor, Width: 1})
	}
	if c.guides.Center {
		out = append(out,
			DrawCommand{Op: "guide", ObjectID: "center-v", Rect: &vertical, Stroke: guideColor, Width: 1},
			DrawCommand{Op: "guide", ObjectID: "center-h", Rect: &horizontal, Stroke: guideColor, Width: 1},
		)
	}
	return out
}

// ComposeJSON serializes Compose output.
func (c *Canvas) ComposeJSON(live LiveFunc) (string, error) {
	data, err := json.Marshal(c.Compose(live))
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
