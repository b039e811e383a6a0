package live

import (
	"encoding/json"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/gesture"
	"github.com/inamate/collage/internal/history"
)

type Message struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server
	TypeTouch       = "touch"
	TypeTap         = "tap"
	TypeFrameTap    = "frame.tap"
	TypeDoubleTap   = "double_tap"
	TypeTick        = "tick"
	TypeStickerAdd  = "sticker.add"
	TypeTextAdd     = "text.add"
	TypeItemRemove  = "item.remove"
	TypePhotoAssign = "photo.assign"
	TypePhotoRemove = "photo.remove"
	TypeTextStyle   = "text.style"
	TypeUndo        = "undo"
	TypeRedo        = "redo"
	TypeSave        = "save"

	// Server to client
	TypeWelcome         = "welcome"
	TypeRender          = "render"
	TypeTransformUpdate = "transform.update"
	TypeSelection       = "selection"
	TypePhotoRequest    = "photo.request"
	TypeUpgradeRequired = "upgrade.required"
	TypeHistory         = "history"
	TypeSaved           = "saved"
	TypeError           = "error"
)

// TouchPayload carries one touch event for an item.
type TouchPayload struct {
	ItemID string `json:"itemId"`
	gesture.TouchEvent
}

type TapPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type FramePayload struct {
	FrameID string `json:"frameId"`
}

type ItemPayload struct {
	ItemID string `json:"itemId"`
}

// TickPayload advances reset animations by DT milliseconds.
type TickPayload struct {
	DT float64 `json:"dt"`
}

type StickerAddPayload struct {
	ContentRef string `json:"contentRef"`
	IsPremium  bool   `json:"isPremium,omitempty"`
}

type TextAddPayload struct {
	Content string              `json:"content"`
	Style   *document.TextStyle `json:"style,omitempty"`
}

type PhotoAssignPayload struct {
	FrameID string `json:"frameId"`
	URI     string `json:"uri"`
}

type TextStylePayload struct {
	ItemID string             `json:"itemId"`
	Style  document.TextStyle `json:"style"`
}

type WelcomePayload struct {
	SessionID string            `json:"sessionId"`
	UserID    string            `json:"userId"`
	Pro       bool              `json:"pro"`
	CollageID string            `json:"collageId,omitempty"`
	Template  document.Template `json:"template"`
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
}

type RenderPayload struct {
	Commands json.RawMessage `json:"commands"`
}

type TransformPayload struct {
	ItemID    string                  `json:"itemId"`
	Transform document.TransformState `json:"transform"`
}

// SelectionPayload is sent on every selection change. An empty ID means the
// selection was cleared.
type SelectionPayload struct {
	ID   string            `json:"id,omitempty"`
	Kind document.ItemKind `json:"kind,omitempty"`
}

type UpgradePayload struct {
	FeatureID string `json:"featureId"`
}

// HistoryPayload reports the log after an edit, undo or redo. Action is the
// edit in effect afterwards.
type HistoryPayload struct {
	Op string `json:"op"`
	history.Summary
	Action *history.Envelope `json:"action,omitempty"`
}

type SavedPayload struct {
	Collage document.Collage `json:"collage"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}
