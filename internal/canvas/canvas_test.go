package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/collage/internal/document"
)

func zi(v int) *int { return &v }

// Two frames on the left half of a 400x400 canvas, the right half is empty.
var testTemplate = document.Template{
	ID:          "test",
	Name:        "Test",
	Category:    document.CategoryGrid,
	AspectRatio: document.AspectSquare,
	Frames: []document.Frame{
		{ID: "top", X: 0, Y: 0, Width: 50, Height: 50, ZIndex: zi(2)},
		{ID: "bottom", X: 0, Y: 50, Width: 50, Height: 50},
		{ID: "overlap", X: 10, Y: 10, Width: 20, Height: 20},
	},
}

func newCanvas(t *testing.T, picker PhotoPicker) *Canvas {
	t.Helper()
	return New(testTemplate, 400, nil, picker)
}

func ops(cmds []DrawCommand) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Op + ":" + c.ObjectID
	}
	return out
}

func TestCanvasHeightFollowsAspectRatio(t *testing.T) {
	story := testTemplate
	story.AspectRatio = document.AspectStory
	c := New(story, 100, nil, nil)
	assert.InDelta(t, 178, c.Size().Height, 1e-9)

	for _, w := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		c = New(testTemplate, w, nil, nil)
		assert.Equal(t, float64(DefaultWidth), c.Size().Width, "width %v", w)
	}
}

func TestComposeOrder(t *testing.T) {
	c := newCanvas(t, nil)
	_, err := c.AssignPhoto("top", "file:///a.jpg")
	require.NoError(t, err)
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "txt_1", Kind: document.KindText, ContentRef: "hi"}))
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "stk_1", Kind: document.KindSticker, ContentRef: "heart.png"}))

	got := ops(c.Compose(nil))
	assert.Equal(t, []string{
		"rect:",
		"frame:bottom",
		"frame:overlap",
		"save:", "clip:", "image:top", "restore:",
		"image:stk_1",
		"text:txt_1",
	}, got)
}

func TestComposeSelectionAffordances(t *testing.T) {
	c := newCanvas(t, nil)
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "stk_1", Kind: document.KindSticker}))
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "stk_2", Kind: document.KindSticker}))
	c.Selection().Select("stk_1", document.KindSticker)

	cmds := c.Compose(nil)
	got := ops(cmds)
	assert.Equal(t, []string{"selection:stk_1", "remove:stk_1"}, got[len(got)-2:])

	c.SetReadOnly(true)
	for _, cmd := range c.Compose(nil) {
		assert.NotEqual(t, "selection", cmd.Op)
		assert.NotEqual(t, "remove", cmd.Op)
	}
	// Content is still rendered.
	assert.Contains(t, ops(c.Compose(nil)), "image:stk_2")
}

func TestComposeUsesLiveTransform(t *testing.T) {
	c := newCanvas(t, nil)
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "stk_1", Kind: document.KindSticker}))
	live := func(id string) (document.TransformState, bool) {
		return document.TransformState{X: 40, Y: -20, Scale: 1}, id == "stk_1"
	}
	var cmd DrawCommand
	for _, d := range c.Compose(live) {
		if d.ObjectID == "stk_1" {
			cmd = d
		}
	}
	require.Len(t, cmd.Transform, 6)
	assert.InDelta(t, 240, cmd.Transform[4], 1e-9)
	assert.InDelta(t, 180, cmd.Transform[5], 1e-9)
}

func TestComposeGuides(t *testing.T) {
	c := newCanvas(t, nil)
	c.SetGuides(snapGuides(true, false, false), pointAt(0, 0))
	got := ops(c.Compose(nil))
	assert.Contains(t, got, "guide:center-v")
	assert.Contains(t, got, "guide:center-h")

	c.SetGuides(snapGuides(false, true, false), pointAt(20, 0))
	for _, cmd := range c.Compose(nil) {
		if cmd.ObjectID == "grid-v" {
			assert.Equal(t, 220.0, cmd.Rect.X)
		}
	}
}

func TestTapFrame(t *testing.T) {
	var requested []string
	c := newCanvas(t, PhotoPickerFunc(func(id string) { requested = append(requested, id) }))

	res, err := c.TapFrame("bottom")
	require.NoError(t, err)
	assert.Equal(t, TapPhotoRequested, res.Outcome)
	assert.Equal(t, []string{"bottom"}, requested)
	_, selected := c.Selection().Current()
	assert.False(t, selected)

	_, err = c.AssignPhoto("bottom", "file:///b.jpg")
	require.NoError(t, err)
	res, err = c.TapFrame("bottom")
	require.NoError(t, err)
	assert.Equal(t, TapSelected, res.Outcome)
	assert.True(t, c.Selection().IsSelected("bottom", document.KindPhoto))
	assert.Len(t, requested, 1)

	_, err = c.TapFrame("nope")
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestTapRouting(t *testing.T) {
	var requested []string
	c := newCanvas(t, PhotoPickerFunc(func(id string) { requested = append(requested, id) }))
	require.NoError(t, c.AddItem(document.CanvasItem{
		ID: "stk_1", Kind: document.KindSticker,
		Transform: document.TransformState{X: 100, Y: -100, Scale: 1},
	}))

	// Sticker centered at (300, 100).
	res := c.Tap(310, 110, nil)
	assert.Equal(t, TapSelected, res.Outcome)
	assert.Equal(t, "stk_1", res.ID)

	// The overlap frame is painted above the bottom frame but below top.
	res = c.Tap(60, 60, nil)
	assert.Equal(t, TapPhotoRequested, res.Outcome)
	assert.Equal(t, "top", res.ID)

	res = c.Tap(100, 300, nil)
	assert.Equal(t, "bottom", res.ID)

	res = c.Tap(300, 350, nil)
	assert.Equal(t, TapDeselected, res.Outcome)
	_, selected := c.Selection().Current()
	assert.False(t, selected)
	assert.Equal(t, []string{"top", "bottom"}, requested)
}

func TestHitTestRotatedItem(t *testing.T) {
	c := newCanvas(t, nil)
	require.NoError(t, c.AddItem(document.CanvasItem{
		ID: "txt_1", Kind: document.KindText,
		Transform: document.TransformState{X: 100, Scale: 1, Rotation: 90},
	}))
	// Center (300, 200); rotated 90 degrees the 150x50 box stands upright.
	_, ok := c.HitTest(300+60, 200, nil)
	assert.False(t, ok)
	hit, ok := c.HitTest(300, 200+60, nil)
	require.True(t, ok)
	assert.Equal(t, "txt_1", hit.ID)
}

func TestReadOnlyIgnoresInteraction(t *testing.T) {
	var requested []string
	c := newCanvas(t, PhotoPickerFunc(func(id string) { requested = append(requested, id) }))
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "stk_1", Kind: document.KindSticker}))
	c.SetReadOnly(true)

	assert.Equal(t, TapIgnored, c.Tap(200, 200, nil).Outcome)
	res, err := c.TapFrame("bottom")
	require.NoError(t, err)
	assert.Equal(t, TapIgnored, res.Outcome)
	assert.Empty(t, requested)
}

func TestItemsAndPhotos(t *testing.T) {
	c := newCanvas(t, nil)
	_, err := c.AssignPhoto("missing", "x")
	assert.ErrorIs(t, err, ErrFrameNotFound)

	_, err = c.AssignPhoto("bottom", "file:///1.jpg")
	require.NoError(t, err)
	prev, err := c.AssignPhoto("bottom", "file:///2.jpg")
	require.NoError(t, err)
	assert.Equal(t, "file:///1.jpg", prev)

	assert.ErrorIs(t, c.AddItem(document.CanvasItem{ID: "p", Kind: document.KindPhoto}), ErrInvalidKind)
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "txt_1", Kind: document.KindText, Transform: document.TransformState{}}))
	assert.ErrorIs(t, c.AddItem(document.CanvasItem{ID: "txt_1", Kind: document.KindText}), ErrDuplicateItem)

	it, ok := c.Item("txt_1")
	require.True(t, ok)
	assert.Equal(t, 1.0, it.Transform.Scale)

	prevStyle, err := c.SetStyle("txt_1", document.TextStyle{FontSize: 40})
	require.NoError(t, err)
	assert.Equal(t, document.TextStyle{}, prevStyle)

	c.Selection().Select("txt_1", document.KindText)
	removed, ok := c.RemoveItem("txt_1")
	require.True(t, ok)
	assert.Equal(t, 40.0, removed.Style.FontSize)
	_, selected := c.Selection().Current()
	assert.False(t, selected)

	assert.ErrorIs(t, c.SetTransform("txt_1", document.IdentityTransform()), ErrItemNotFound)
}

func TestCollageRoundTrip(t *testing.T) {
	c := newCanvas(t, nil)
	_, _ = c.AssignPhoto("bottom", "file:///b.jpg")
	_, _ = c.AssignPhoto("top", "file:///a.jpg")
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "stk_1", Kind: document.KindSticker, ContentRef: "star"}))
	require.NoError(t, c.AddItem(document.CanvasItem{ID: "txt_1", Kind: document.KindText, ContentRef: "hey",
		Style: &document.TextStyle{Color: "#000"}}))

	col := c.Collage()
	assert.Equal(t, "test", col.TemplateID)
	assert.Equal(t, []document.PhotoAssignment{
		{FrameID: "top", URI: "file:///a.jpg"},
		{FrameID: "bottom", URI: "file:///b.jpg"},
	}, col.Photos)

	other := newCanvas(t, nil)
	col.Photos = append(col.Photos, document.PhotoAssignment{FrameID: "ghost", URI: "x"})
	assert.ErrorIs(t, other.Load(col), ErrFrameNotFound)
	assert.Len(t, other.Photos(), 2)
	assert.Equal(t, c.Stickers(), other.Stickers())
	assert.Equal(t, c.Texts(), other.Texts())
}

func TestLoadReportsSkippedItems(t *testing.T) {
	c := newCanvas(t, nil)
	err := c.Load(document.Collage{
		TemplateID: "test",
		Stickers: []document.CanvasItem{
			{ID: "stk_1", ContentRef: "star"},
			{ID: "stk_1", ContentRef: "moon"},
		},
		Texts: []document.CanvasItem{{ID: "stk_1", ContentRef: "hey"}, {ID: "txt_1", ContentRef: "ok"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateItem)
	assert.NotErrorIs(t, err, ErrFrameNotFound)

	require.Len(t, c.Stickers(), 1)
	assert.Equal(t, "star", c.Stickers()[0].ContentRef)
	require.Len(t, c.Texts(), 1)
	assert.Equal(t, "txt_1", c.Texts()[0].ID)

	assert.NoError(t, c.Load(document.Collage{TemplateID: "test"}))
	assert.Empty(t, c.Stickers())
}
