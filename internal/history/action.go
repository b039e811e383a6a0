// Package history keeps the bounded undo/redo log of discrete collage edits.
// Actions carry identifiers and transform or style deltas only; applying them
// to a canvas is the caller's job.
package history

import (
	"time"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/typeid"
)

type Kind string

const (
	KindAddPhoto      Kind = "add_photo"
	KindRemovePhoto   Kind = "remove_photo"
	KindAddSticker    Kind = "add_sticker"
	KindRemoveSticker Kind = "remove_sticker"
	KindAddText       Kind = "add_text"
	KindRemoveText    Kind = "remove_text"
	KindTransform     Kind = "transform"
	KindStyleChange   Kind = "style_change"
)

// Meta identifies one recorded edit.
type Meta struct {
	ID        string
	Timestamp time.Time
}

func newMeta() Meta {
	return Meta{ID: typeid.NewActionID(), Timestamp: time.Now().UTC()}
}

// Action is one of the eight edit kinds below. The set is closed.
type Action interface {
	Kind() Kind
	Info() Meta
	action()
}

// AddPhoto assigns URI to a frame. Previous is the photo it replaced, if any.
type AddPhoto struct {
	Meta
	FrameID  string
	URI      string
	Previous string
}

type RemovePhoto struct {
	Meta
	FrameID string
	URI     string
}

// Sticker records enough of a sticker to re-create it.
type Sticker struct {
	StickerID  string                  `json:"stickerId"`
	ContentRef string                  `json:"contentRef,omitempty"`
	IsPremium  bool                    `json:"isPremium,omitempty"`
	Transform  document.TransformState `json:"transform"`
}

type AddSticker struct {
	Meta
	Sticker
}

type RemoveSticker struct {
	Meta
	Sticker
}

// Text records enough of a text item to re-create it.
type Text struct {
	TextID    string                  `json:"textId"`
	Content   string                  `json:"content"`
	Style     *document.TextStyle     `json:"style,omitempty"`
	Transform document.TransformState `json:"transform"`
}

type AddText struct {
	Meta
	Text
}

type RemoveText struct {
	Meta
	Text
}

// Transform is a committed gesture. Before is the undo data.
type Transform struct {
	Meta
	ItemID   string
	ItemKind document.ItemKind
	Before   document.TransformState
	After    document.TransformState
}

// StyleChange is a text restyle. Before is the undo data.
type StyleChange struct {
	Meta
	ItemID string
	Before document.TextStyle
	After  document.TextStyle
}

func (a *AddPhoto) Kind() Kind      { return KindAddPhoto }
func (a *RemovePhoto) Kind() Kind   { return KindRemovePhoto }
func (a *AddSticker) Kind() Kind    { return KindAddSticker }
func (a *RemoveSticker) Kind() Kind { return KindRemoveSticker }
func (a *AddText) Kind() Kind       { return KindAddText }
func (a *RemoveText) Kind() Kind    { return KindRemoveText }
func (a *Transform) Kind() Kind     { return KindTransform }
func (a *StyleChange) Kind() Kind   { return KindStyleChange }

func (m Meta) Info() Meta { return m }

func (*AddPhoto) action()      {}
func (*RemovePhoto) action()   {}
func (*AddSticker) action()    {}
func (*RemoveSticker) action() {}
func (*AddText) action()       {}
func (*RemoveText) action()    {}
func (*Transform) action()     {}
func (*StyleChange) action()   {}

func NewAddPhoto(frameID, uri, previous string) *AddPhoto {
	return &AddPhoto{Meta: newMeta(), FrameID: frameID, URI: uri, Previous: previous}
}

// NewRemovePhoto records the URI that was removed so undo can put it back.
func NewRemovePhoto(frameID, uri string) *RemovePhoto {
	return &RemovePhoto{Meta: newMeta(), FrameID: frameID, URI: uri}
}

func stickerOf(item document.CanvasItem) Sticker {
	return Sticker{
		StickerID:  item.ID,
		ContentRef: item.ContentRef,
		IsPremium:  item.IsPremium,
		Transform:  item.Transform,
	}
}

func textOf(item document.CanvasItem) Text {
	t := Text{TextID: item.ID, Content: item.ContentRef, Transform: item.Transform}
	if item.Style != nil {
		s := *item.Style
		t.Style = &s
	}
	return t
}

func NewAddSticker(item document.CanvasItem) *AddSticker {
	return &AddSticker{Meta: newMeta(), Sticker: stickerOf(item)}
}

func NewRemoveSticker(item document.CanvasItem) *RemoveSticker {
	return &RemoveSticker{Meta: newMeta(), Sticker: stickerOf(item)}
}

func NewAddText(item document.CanvasItem) *AddText {
	return &AddText{Meta: newMeta(), Text: textOf(item)}
}

func NewRemoveText(item document.CanvasItem) *RemoveText {
	return &RemoveText{Meta: newMeta(), Text: textOf(item)}
}

func NewTransform(itemID string, kind document.ItemKind, before, after document.TransformState) *Transform {
	return &Transform{Meta: newMeta(), ItemID: itemID, ItemKind: kind, Before: before, After: after}
}

func NewStyleChange(itemID string, before, after document.TextStyle) *StyleChange {
	return &StyleChange{Meta: newMeta(), ItemID: itemID, Before: before, After: after}
}

// Item rebuilds the canvas item a sticker action describes.
func (s Sticker) Item() document.CanvasItem {
	return document.CanvasItem{
		ID:         s.StickerID,
		Kind:       document.KindSticker,
		Transform:  s.Transform,
		ContentRef: s.ContentRef,
		IsPremium:  s.IsPremium,
	}
}

// Item rebuilds the canvas item a text action describes.
func (t Text) Item() document.CanvasItem {
	item := document.CanvasItem{
		ID:         t.TextID,
		Kind:       document.KindText,
		Transform:  t.Transform,
		ContentRef: t.Content,
	}
	if t.Style != nil {
		s := *t.Style
		item.Style = &s
	}
	return item
}
