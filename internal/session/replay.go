package session

import (
	"fmt"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/history"
)

// apply performs an action's edit on the canvas.
func (e *Editor) apply(a history.Action) {
	var err error
	switch a := a.(type) {
	case *history.AddPhoto:
		_, err = e.canvas.AssignPhoto(a.FrameID, a.URI)
	case *history.RemovePhoto:
		e.canvas.RemovePhoto(a.FrameID)
	case *history.AddSticker:
		err = e.insert(a.Item())
	case *history.RemoveSticker:
		_, err = e.remove(a.StickerID)
	case *history.AddText:
		err = e.insert(a.Item())
	case *history.RemoveText:
		_, err = e.remove(a.TextID)
	case *history.Transform:
		err = e.setTransform(a.ItemID, a.After)
	case *history.StyleChange:
		_, err = e.canvas.SetStyle(a.ItemID, a.After)
	default:
		err = fmt.Errorf("unknown action %T", a)
	}
	if err != nil {
		e.log.Warn("redo could not be applied", "kind", a.Kind(), "error", err)
	}
}

// revert undoes an action's edit on the canvas.
func (e *Editor) revert(a history.Action) {
	var err error
	switch a := a.(type) {
	case *history.AddPhoto:
		if a.Previous != "" {
			_, err = e.canvas.AssignPhoto(a.FrameID, a.Previous)
		} else {
			e.canvas.RemovePhoto(a.FrameID)
		}
	case *history.RemovePhoto:
		_, err = e.canvas.AssignPhoto(a.FrameID, a.URI)
	case *history.AddSticker:
		_, err = e.remove(a.StickerID)
	case *history.RemoveSticker:
		err = e.insert(a.Item())
	case *history.AddText:
		_, err = e.remove(a.TextID)
	case *history.RemoveText:
		err = e.insert(a.Item())
	case *history.Transform:
		err = e.setTransform(a.ItemID, a.Before)
	case *history.StyleChange:
		_, err = e.canvas.SetStyle(a.ItemID, a.Before)
	default:
		err = fmt.Errorf("unknown action %T", a)
	}
	if err != nil {
		e.log.Warn("undo could not be applied", "kind", a.Kind(), "error", err)
	}
}

// setTransform moves an item without recording history.
func (e *Editor) setTransform(id string, t document.TransformState) error {
	if err := e.canvas.SetTransform(id, t); err != nil {
		return err
	}
	if m, ok := e.machines[id]; ok {
		m.SetTransform(t)
	}
	if e.onTransform != nil {
		e.onTransform(id, t)
	}
	return nil
}
