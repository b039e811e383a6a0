//go:build js && wasm

package main

import (
	"encoding/json"
	"math"
	"syscall/js"
	"time"

	"github.com/inamate/collage/internal/canvas"
	"github.com/inamate/collage/internal/config"
	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/gesture"
	"github.com/inamate/collage/internal/history"
	"github.com/inamate/collage/internal/premium"
	"github.com/inamate/collage/internal/session"
)

var (
	editor   *session.Editor
	gate     = premium.NewGate(false, func(featureID string) { emit("upgrade.required", map[string]string{"featureId": featureID}) })
	listener js.Value
)

func main() {
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadTemplate", js.FuncOf(loadTemplate))
	api.Set("loadCollage", js.FuncOf(loadCollage))
	api.Set("setPro", js.FuncOf(setPro))
	api.Set("setReadOnly", js.FuncOf(setReadOnly))
	api.Set("onEvent", js.FuncOf(onEvent))
	api.Set("addSticker", js.FuncOf(addSticker))
	api.Set("addText", js.FuncOf(addText))
	api.Set("removeItem", js.FuncOf(removeItem))
	api.Set("assignPhoto", js.FuncOf(assignPhoto))
	api.Set("removePhoto", js.FuncOf(removePhoto))
	api.Set("setTextStyle", js.FuncOf(setTextStyle))
	api.Set("handleTouch", js.FuncOf(handleTouch))
	api.Set("tap", js.FuncOf(tap))
	api.Set("tapFrame", js.FuncOf(tapFrame))
	api.Set("doubleTap", js.FuncOf(doubleTap))
	api.Set("tick", js.FuncOf(tick))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("requestCapture", js.FuncOf(requestCapture))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("snapshot", js.FuncOf(snapshot))
	api.Set("history", js.FuncOf(historySummary))
	api.Set("isBusy", js.FuncOf(isBusy))

	js.Global().Set("collageEngine", api)
	js.Global().Set("collageWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} { return js.ValueOf(map[string]interface{}{"ok": true}) }

func fail(msg string) interface{} { return js.ValueOf(map[string]interface{}{"error": msg}) }

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// emit forwards an engine event to the callback registered with onEvent.
func emit(typ string, payload any) {
	if listener.Type() != js.TypeFunction {
		return
	}
	listener.Invoke(typ, toJSON(payload))
}

func newEditor(tmpl document.Template, width float64) {
	editor = session.NewEditor(config.DefaultEngine(), tmpl,
		session.WithGate(gate),
		session.WithCanvasWidth(width),
		session.WithPhotoPicker(canvas.PhotoPickerFunc(func(frameID string) {
			emit("photo.request", map[string]string{"frameId": frameID})
		})),
		session.WithTransformListener(func(id string, t document.TransformState) {
			emit("transform.update", map[string]any{"itemId": id, "transform": t})
		}),
		session.WithSelectionListener(
			func(s canvas.Selection) { emit("selection", s) },
			func() { emit("selection", map[string]string{}) },
		),
	)
}

// widthArg reads the optional canvas width. Zero selects the default width.
func widthArg(args []js.Value) (float64, bool) {
	if len(args) < 2 || args[1].Type() != js.TypeNumber {
		return 0, true
	}
	w := args[1].Float()
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0, false
	}
	return w, true
}

// loadTemplate(templateId, width?) starts an empty collage.
func loadTemplate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing template id")
	}
	tmpl, found := document.TemplateByID(args[0].String())
	if !found {
		return fail("unknown template")
	}
	width, valid := widthArg(args)
	if !valid {
		return fail("invalid width")
	}
	newEditor(tmpl, width)
	size := editor.Canvas().Size()
	return js.ValueOf(map[string]interface{}{"ok": true, "width": size.Width, "height": size.Height})
}

// loadCollage(json, width?) reopens a saved collage.
func loadCollage(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing collage JSON")
	}
	var col document.Collage
	if err := json.Unmarshal([]byte(args[0].String()), &col); err != nil {
		return fail(err.Error())
	}
	tmpl, found := document.TemplateByID(col.TemplateID)
	if !found {
		return fail("unknown template")
	}
	width, valid := widthArg(args)
	if !valid {
		return fail("invalid width")
	}
	newEditor(tmpl, width)
	if err := editor.Load(col); err != nil {
		return js.ValueOf(map[string]interface{}{"ok": true, "warning": err.Error()})
	}
	return ok()
}

func setPro(this js.Value, args []js.Value) interface{} {
	gate.SetPro(len(args) > 0 && args[0].Truthy())
	return nil
}

func setReadOnly(this js.Value, args []js.Value) interface{} {
	if editor != nil {
		editor.SetReadOnly(len(args) > 0 && args[0].Truthy())
	}
	return nil
}

func onEvent(this js.Value, args []js.Value) interface{} {
	if len(args) > 0 {
		listener = args[0]
	}
	return nil
}

func withEditor(fn func() interface{}) interface{} {
	if editor == nil {
		return fail("no collage loaded")
	}
	return fn()
}

func addSticker(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 1 {
			return fail("missing content ref")
		}
		isPremium := len(args) > 1 && args[1].Truthy()
		if isPremium && !gate.RequestFeatureAccess(premium.FeaturePremiumStickers) {
			return fail("upgrade required")
		}
		it, err := editor.AddSticker(args[0].String(), isPremium)
		if err != nil {
			return fail(err.Error())
		}
		return js.ValueOf(map[string]interface{}{"ok": true, "id": it.ID})
	})
}

func addText(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 1 {
			return fail("missing text")
		}
		var style *document.TextStyle
		if len(args) > 1 && args[1].Type() == js.TypeString {
			style = &document.TextStyle{}
			if err := json.Unmarshal([]byte(args[1].String()), style); err != nil {
				return fail(err.Error())
			}
		}
		it, err := editor.AddText(args[0].String(), style)
		if err != nil {
			return fail(err.Error())
		}
		return js.ValueOf(map[string]interface{}{"ok": true, "id": it.ID})
	})
}

func removeItem(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 1 {
			return fail("missing item id")
		}
		if err := editor.RemoveItem(args[0].String()); err != nil {
			return fail(err.Error())
		}
		return ok()
	})
}

func assignPhoto(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 2 {
			return fail("missing frame id or uri")
		}
		if err := editor.AssignPhoto(args[0].String(), args[1].String()); err != nil {
			return fail(err.Error())
		}
		return ok()
	})
}

func removePhoto(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 1 {
			return fail("missing frame id")
		}
		if err := editor.RemovePhoto(args[0].String()); err != nil {
			return fail(err.Error())
		}
		return ok()
	})
}

func setTextStyle(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 2 {
			return fail("missing item id or style")
		}
		var style document.TextStyle
		if err := json.Unmarshal([]byte(args[1].String()), &style); err != nil {
			return fail(err.Error())
		}
		if err := editor.SetTextStyle(args[0].String(), style); err != nil {
			return fail(err.Error())
		}
		return ok()
	})
}

// handleTouch(itemId, eventJSON) feeds one touch sample.
func handleTouch(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 2 {
			return fail("missing item id or event")
		}
		var ev gesture.TouchEvent
		if err := json.Unmarshal([]byte(args[1].String()), &ev); err != nil {
			return fail(err.Error())
		}
		if err := editor.HandleTouch(args[0].String(), ev); err != nil {
			return fail(err.Error())
		}
		return ok()
	})
}

func tap(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 2 {
			return fail("missing coordinates")
		}
		return js.ValueOf(toJSON(editor.Tap(args[0].Float(), args[1].Float())))
	})
}

func tapFrame(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 1 {
			return fail("missing frame id")
		}
		res, err := editor.TapFrame(args[0].String())
		if err != nil {
			return fail(err.Error())
		}
		return js.ValueOf(toJSON(res))
	})
}

func doubleTap(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 1 {
			return fail("missing item id")
		}
		if err := editor.DoubleTap(args[0].String()); err != nil {
			return fail(err.Error())
		}
		return ok()
	})
}

// tick(dtMillis) advances reset animations and returns draw commands.
func tick(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		dt := 16.0
		if len(args) > 0 && args[0].Type() == js.TypeNumber {
			dt = args[0].Float()
		}
		editor.Tick(time.Duration(dt * float64(time.Millisecond)))
		return js.ValueOf(editor.Render())
	})
}

func actionJSON(a history.Action, found bool) interface{} {
	if !found {
		return js.Null()
	}
	data, err := history.MarshalAction(a)
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}

func undo(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} { return actionJSON(editor.Undo()) })
}

func redo(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} { return actionJSON(editor.Redo()) })
}

// requestCapture(callback) calls back with the collage JSON once no gesture
// or reset animation is running.
func requestCapture(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} {
		if len(args) < 1 || args[0].Type() != js.TypeFunction {
			return fail("missing callback")
		}
		cb := args[0]
		editor.RequestCapture(func(col document.Collage) {
			cb.Invoke(toJSON(col))
		})
		return ok()
	})
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	if editor == nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(editor.Render())
}

func snapshot(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} { return js.ValueOf(toJSON(editor.Snapshot())) })
}

func historySummary(this js.Value, args []js.Value) interface{} {
	return withEditor(func() interface{} { return js.ValueOf(toJSON(editor.History().Summary())) })
}

func isBusy(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(editor != nil && editor.Busy())
}
