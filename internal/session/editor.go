// Package session runs one collage editing session: the canvas model, one
// gesture machine per overlay item, the shared capture arbiter, and the edit
// history. An Editor is driven from a single goroutine.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/collage/internal/canvas"
	"github.com/inamate/collage/internal/config"
	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
	"github.com/inamate/collage/internal/gesture"
	"github.com/inamate/collage/internal/history"
	"github.com/inamate/collage/internal/premium"
	"github.com/inamate/collage/internal/snap"
	"github.com/inamate/collage/internal/typeid"
)

var (
	ErrItemNotFound  = canvas.ErrItemNotFound
	ErrFrameNotFound = canvas.ErrFrameNotFound
	ErrReadOnly      = errors.New("collage is read-only")
	ErrNoPhoto       = errors.New("frame has no photo")
)

// Editor owns the state of one collage being edited.
type Editor struct {
	cfg     config.Engine
	gesture gesture.Config
	log     *slog.Logger
	now     func() time.Time

	canvas   *canvas.Canvas
	arbiter  *gesture.Arbiter
	machines map[string]*gesture.Machine
	history  *history.Manager

	gate        premium.Checker
	picker      canvas.PhotoPicker
	width       float64
	readOnly    bool
	onTransform func(id string, t document.TransformState)
	onSelect    func(canvas.Selection)
	onDeselect  func()

	pending []func(document.Collage)
}

// GestureConfig maps the engine settings onto the gesture machine.
func GestureConfig(cfg config.Engine) gesture.Config {
	return gesture.Config{
		MinScale: cfg.MinScale,
		MaxScale: cfg.MaxScale,
		Snap: snap.Config{
			GridSize:  cfg.GridSize,
			Threshold: cfg.SnapThreshold,
			Padding:   cfg.BoundaryPadding,
		},
		DragThreshold:   cfg.DragThreshold,
		DoubleTapWindow: cfg.DoubleTapWindow,
		Spring:          gesture.SpringConfig{Stiffness: cfg.SpringStiffness, Damping: cfg.SpringDamping},
	}
}

func NewEditor(cfg config.Engine, tmpl document.Template, opts ...Option) *Editor {
	e := &Editor{
		cfg:      cfg,
		log:      slog.Default(),
		now:      time.Now,
		arbiter:  gesture.NewArbiter(),
		machines: make(map[string]*gesture.Machine),
		history:  history.NewManager(cfg.MaxHistorySize),
		gate:     premium.AllowAll,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gesture = GestureConfig(cfg)
	e.gesture.Clock = e.now

	sel := canvas.NewSelectionManager(e.selected, e.deselected)
	e.canvas = canvas.New(tmpl, e.width, sel, canvas.PhotoPickerFunc(e.requestPhoto))
	e.canvas.SetReadOnly(e.readOnly)
	return e
}

func (e *Editor) Canvas() *canvas.Canvas    { return e.canvas }
func (e *Editor) History() *history.Manager { return e.history }
func (e *Editor) ReadOnly() bool            { return e.readOnly }

func (e *Editor) SetReadOnly(v bool) {
	if v {
		e.terminate()
	}
	e.readOnly = v
	e.canvas.SetReadOnly(v)
}

func (e *Editor) selected(s canvas.Selection) {
	if e.onSelect != nil {
		e.onSelect(s)
	}
}

func (e *Editor) deselected() {
	if e.onDeselect != nil {
		e.onDeselect()
	}
}

func (e *Editor) requestPhoto(frameID string) {
	e.log.Debug("photo requested", "frame_id", frameID)
	if e.picker != nil {
		e.picker.RequestPhoto(frameID)
	}
}

// Load replaces the session content with a saved collage and starts a fresh
// history. Entries the canvas could not place are logged and returned; the
// rest of the collage is still loaded.
func (e *Editor) Load(col document.Collage) error {
	e.terminate()
	err := e.canvas.Load(col)
	if err != nil {
		e.log.Warn("collage loaded with skipped entries", "collage_id", col.ID, "error", err)
	}
	e.machines = make(map[string]*gesture.Machine)
	for _, it := range e.canvas.Stickers() {
		e.track(it)
	}
	for _, it := range e.canvas.Texts() {
		e.track(it)
	}
	e.history.Clear()
	e.pending = nil
	return err
}

// track creates the gesture machine for an overlay item.
func (e *Editor) track(it document.CanvasItem) {
	caps := gesture.AllCapabilities()
	if it.IsPremium {
		caps.Gated = true
		caps.FeatureID = premium.FeatureAdvancedEditing
	}
	kind := it.Kind
	e.machines[it.ID] = gesture.NewMachine(gesture.Item{
		ID:        it.ID,
		Size:      canvas.ItemSize(kind),
		Transform: it.Transform,
		Caps:      caps,
	}, e.canvas.Size(), e.gesture, e.arbiter, gesture.Hooks{
		Access: e.access,
		Select: func(id string) { e.canvas.Selection().Select(id, kind) },
		Update: func(id string, t document.TransformState) { e.committed(id, kind, t) },
		Guides: e.guides,
	})
}

func (e *Editor) untrack(id string) {
	if m, ok := e.machines[id]; ok {
		m.Terminate()
		delete(e.machines, id)
	}
}

func (e *Editor) access(featureID string) bool {
	ok := e.gate.RequestFeatureAccess(featureID)
	if !ok {
		e.log.Debug("gesture grant refused", "feature", featureID)
	}
	return ok
}

func (e *Editor) guides(id string, g snap.Guides) {
	var at geometry.Point
	if m, ok := e.machines[id]; ok {
		live := m.Live()
		at = geometry.Point{X: live.X, Y: live.Y}
	}
	e.canvas.SetGuides(g, at)
}

// committed records a finished gesture or reset animation.
func (e *Editor) committed(id string, kind document.ItemKind, after document.TransformState) {
	it, ok := e.canvas.Item(id)
	if !ok {
		return
	}
	before := it.Transform
	it.Transform = after
	if before != after {
		e.history.Push(history.NewTransform(id, kind, before, after))
		e.log.Debug("transform committed", "item_id", id, "x", after.X, "y", after.Y,
			"scale", after.Scale, "rotation", after.Rotation)
	}
	if e.onTransform != nil {
		e.onTransform(id, after)
	}
}

// terminate force-ends any active gesture.
func (e *Editor) terminate() {
	if id, ok := e.arbiter.Owner(); ok {
		if m, ok := e.machines[id]; ok {
			m.Terminate()
		}
	}
}

func (e *Editor) editable() error {
	if e.readOnly {
		return ErrReadOnly
	}
	return nil
}

// AddSticker places a sticker at the canvas center.
func (e *Editor) AddSticker(contentRef string, isPremium bool) (document.CanvasItem, error) {
	if err := e.editable(); err != nil {
		return document.CanvasItem{}, err
	}
	it := document.CanvasItem{
		ID:         typeid.NewStickerID(),
		Kind:       document.KindSticker,
		Transform:  document.IdentityTransform(),
		ContentRef: contentRef,
		IsPremium:  isPremium,
	}
	if err := e.insert(it); err != nil {
		return document.CanvasItem{}, err
	}
	e.history.Push(history.NewAddSticker(it))
	e.log.Debug("sticker added", "item_id", it.ID, "premium", isPremium)
	return it, nil
}

// AddText places a text item at the canvas center.
func (e *Editor) AddText(content string, style *document.TextStyle) (document.CanvasItem, error) {
	if err := e.editable(); err != nil {
		return document.CanvasItem{}, err
	}
	it := document.CanvasItem{
		ID:         typeid.NewTextID(),
		Kind:       document.KindText,
		Transform:  document.IdentityTransform(),
		ContentRef: content,
	}
	if style != nil {
		s := *style
		it.Style = &s
	}
	if err := e.insert(it); err != nil {
		return document.CanvasItem{}, err
	}
	e.history.Push(history.NewAddText(it))
	e.log.Debug("text added", "item_id", it.ID)
	return it, nil
}

func (e *Editor) insert(it document.CanvasItem) error {
	if err := e.canvas.AddItem(it); err != nil {
		return err
	}
	e.track(it)
	return nil
}

func (e *Editor) remove(id string) (document.CanvasItem, error) {
	e.untrack(id)
	it, ok := e.canvas.RemoveItem(id)
	if !ok {
		return document.CanvasItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return it, nil
}

// RemoveItem deletes a sticker or text, ending any gesture on it.
func (e *Editor) RemoveItem(id string) error {
	if err := e.editable(); err != nil {
		return err
	}
	it, err := e.remove(id)
	if err != nil {
		return err
	}
	if it.Kind == document.KindText {
		e.history.Push(history.NewRemoveText(it))
	} else {
		e.history.Push(history.NewRemoveSticker(it))
	}
	e.log.Debug("item removed", "item_id", id, "kind", it.Kind)
	return nil
}

// AssignPhoto puts a photo into a frame, typically in answer to a photo
// request.
func (e *Editor) AssignPhoto(frameID, uri string) error {
	if err := e.editable(); err != nil {
		return err
	}
	prev, err := e.canvas.AssignPhoto(frameID, uri)
	if err != nil {
		return err
	}
	if prev == uri {
		return nil
	}
	e.history.Push(history.NewAddPhoto(frameID, uri, prev))
	e.log.Debug("photo assigned", "frame_id", frameID)
	return nil
}

func (e *Editor) RemovePhoto(frameID string) error {
	if err := e.editable(); err != nil {
		return err
	}
	tmpl := e.canvas.Template()
	if _, ok := tmpl.Frame(frameID); !ok {
		return fmt.Errorf("%w: %s", ErrFrameNotFound, frameID)
	}
	uri, ok := e.canvas.RemovePhoto(frameID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPhoto, frameID)
	}
	e.history.Push(history.NewRemovePhoto(frameID, uri))
	e.log.Debug("photo removed", "frame_id", frameID)
	return nil
}

// SetTextStyle restyles a text item.
func (e *Editor) SetTextStyle(id string, style document.TextStyle) error {
	if err := e.editable(); err != nil {
		return err
	}
	prev, err := e.canvas.SetStyle(id, style)
	if err != nil {
		return err
	}
	if prev.Equal(style) {
		return nil
	}
	e.history.Push(history.NewStyleChange(id, prev, style))
	return nil
}

// HandleTouch feeds a touch event to the item's gesture machine.
func (e *Editor) HandleTouch(id string, ev gesture.TouchEvent) error {
	if err := e.editable(); err != nil {
		return err
	}
	m, ok := e.machines[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	m.HandleEvent(ev)
	e.flush()
	return nil
}

// Tap routes a tap at canvas coordinates.
func (e *Editor) Tap(x, y float64) canvas.TapResult {
	return e.canvas.Tap(x, y, e.live)
}

func (e *Editor) TapFrame(frameID string) (canvas.TapResult, error) {
	return e.canvas.TapFrame(frameID)
}

func (e *Editor) Deselect() {
	if e.readOnly {
		return
	}
	e.canvas.Selection().Deselect()
}

// DoubleTap springs an item back to its rest transform.
func (e *Editor) DoubleTap(id string) error {
	if err := e.editable(); err != nil {
		return err
	}
	m, ok := e.machines[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	m.DoubleTap()
	return nil
}

// Tick advances reset animations by dt and reports whether anything moved.
func (e *Editor) Tick(dt time.Duration) bool {
	changed := false
	for _, m := range e.machines {
		if m.Tick(dt) {
			changed = true
		}
	}
	e.flush()
	return changed
}

// Undo reverts the edit in effect and returns the action now in effect.
func (e *Editor) Undo() (history.Action, bool) {
	if e.readOnly {
		return nil, false
	}
	e.terminate()
	undone, ok := e.history.Present()
	if !ok {
		return nil, false
	}
	present, ok := e.history.Undo()
	if !ok {
		return nil, false
	}
	e.revert(undone)
	e.log.Debug("undo", "kind", undone.Kind(), "action_id", undone.Info().ID)
	return present, true
}

// Redo re-applies the next undone edit and returns it.
func (e *Editor) Redo() (history.Action, bool) {
	if e.readOnly {
		return nil, false
	}
	e.terminate()
	next, ok := e.history.Redo()
	if !ok {
		return nil, false
	}
	e.apply(next)
	e.log.Debug("redo", "kind", next.Kind(), "action_id", next.Info().ID)
	return next, true
}

// Busy reports whether a gesture holds capture or a reset is in flight. A
// capture taken while busy would show a transform that is about to change.
func (e *Editor) Busy() bool {
	if e.arbiter.Active() {
		return true
	}
	for _, m := range e.machines {
		if m.Resetting() {
			return true
		}
	}
	return false
}

// RequestCapture runs fn with the committed collage once the editor is not
// busy, immediately if it already is idle.
func (e *Editor) RequestCapture(fn func(document.Collage)) {
	if !e.Busy() {
		fn(e.Snapshot())
		return
	}
	e.pending = append(e.pending, fn)
}

func (e *Editor) flush() {
	if len(e.pending) == 0 || e.Busy() {
		return
	}
	pending := e.pending
	e.pending = nil
	col := e.Snapshot()
	for _, fn := range pending {
		fn(col)
	}
}

// Snapshot returns the committed composition.
func (e *Editor) Snapshot() document.Collage {
	return e.canvas.Collage()
}

// Transform returns the committed transform of an item.
func (e *Editor) Transform(id string) (document.TransformState, bool) {
	it, ok := e.canvas.Item(id)
	if !ok {
		return document.TransformState{}, false
	}
	return it.Transform, true
}

func (e *Editor) live(id string) (document.TransformState, bool) {
	m, ok := e.machines[id]
	if !ok {
		return document.TransformState{}, false
	}
	return m.Live(), true
}

// Commands composes the canvas with in-flight gestures applied.
func (e *Editor) Commands() []canvas.DrawCommand {
	return e.canvas.Compose(e.live)
}

// Render returns Commands as JSON.
func (e *Editor) Render() string {
	out, err := e.canvas.ComposeJSON(e.live)
	if err != nil {
		e.log.Error("render failed", "error", err)
	}
	return out
}
