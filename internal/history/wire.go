package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/inamate/collage/internal/document"
)

// Envelope is the JSON form of an action: {type, id, timestamp, data, undoData}.
// Timestamp is in Unix milliseconds.
type Envelope struct {
	Type      Kind            `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	UndoData  json.RawMessage `json:"undoData,omitempty"`
}

type photoData struct {
	FrameID string `json:"frameId"`
	URI     string `json:"uri,omitempty"`
}

type photoUndo struct {
	URI string `json:"uri"`
}

type transformData struct {
	ItemID    string                  `json:"itemId"`
	ItemType  document.ItemKind       `json:"itemType"`
	Transform document.TransformState `json:"transform"`
}

type transformUndo struct {
	Transform document.TransformState `json:"transform"`
}

type styleData struct {
	ItemID   string             `json:"itemId"`
	ItemType document.ItemKind  `json:"itemType"`
	Style    document.TextStyle `json:"style"`
}

type styleUndo struct {
	Style document.TextStyle `json:"style"`
}

// Encode converts an action to its envelope.
func Encode(a Action) (Envelope, error) {
	var data, undo any
	switch a := a.(type) {
	case *AddPhoto:
		data = photoData{FrameID: a.FrameID, URI: a.URI}
		if a.Previous != "" {
			undo = photoUndo{URI: a.Previous}
		}
	case *RemovePhoto:
		data = photoData{FrameID: a.FrameID, URI: a.URI}
	case *AddSticker:
		data = a.Sticker
	case *RemoveSticker:
		data = a.Sticker
	case *AddText:
		data = a.Text
	case *RemoveText:
		data = a.Text
	case *Transform:
		data = transformData{ItemID: a.ItemID, ItemType: a.ItemKind, Transform: a.After}
		undo = transformUndo{Transform: a.Before}
	case *StyleChange:
		data = styleData{ItemID: a.ItemID, ItemType: document.KindText, Style: a.After}
		undo = styleUndo{Style: a.Before}
	default:
		return Envelope{}, fmt.Errorf("unknown action %T", a)
	}

	meta := a.Info()
	env := Envelope{Type: a.Kind(), ID: meta.ID, Timestamp: meta.Timestamp.UnixMilli()}
	var err error
	if env.Data, err = json.Marshal(data); err != nil {
		return Envelope{}, fmt.Errorf("encoding %s data: %w", env.Type, err)
	}
	if undo != nil {
		if env.UndoData, err = json.Marshal(undo); err != nil {
			return Envelope{}, fmt.Errorf("encoding %s undo data: %w", env.Type, err)
		}
	}
	return env, nil
}

// Decode converts an envelope back to an action.
func Decode(env Envelope) (Action, error) {
	meta := Meta{ID: env.ID, Timestamp: time.UnixMilli(env.Timestamp).UTC()}

	switch env.Type {
	case KindAddPhoto, KindRemovePhoto:
		var d photoData
		if err := unmarshal(env, env.Data, &d); err != nil {
			return nil, err
		}
		if env.Type == KindAddPhoto {
			var u photoUndo
			if len(env.UndoData) > 0 {
				if err := unmarshal(env, env.UndoData, &u); err != nil {
					return nil, err
				}
			}
			return &AddPhoto{Meta: meta, FrameID: d.FrameID, URI: d.URI, Previous: u.URI}, nil
		}
		return &RemovePhoto{Meta: meta, FrameID: d.FrameID, URI: d.URI}, nil
	case KindAddSticker, KindRemoveSticker:
		var d Sticker
		if err := unmarshal(env, env.Data, &d); err != nil {
			return nil, err
		}
		if env.Type == KindAddSticker {
			return &AddSticker{Meta: meta, Sticker: d}, nil
		}
		return &RemoveSticker{Meta: meta, Sticker: d}, nil
	case KindAddText, KindRemoveText:
		var d Text
		if err := unmarshal(env, env.Data, &d); err != nil {
			return nil, err
		}
		if env.Type == KindAddText {
			return &AddText{Meta: meta, Text: d}, nil
		}
		return &RemoveText{Meta: meta, Text: d}, nil
	case KindTransform:
		var d transformData
		var u transformUndo
		if err := unmarshal(env, env.Data, &d); err != nil {
			return nil, err
		}
		if err := unmarshal(env, env.UndoData, &u); err != nil {
			return nil, err
		}
		return &Transform{Meta: meta, ItemID: d.ItemID, ItemKind: d.ItemType, Before: u.Transform, After: d.Transform}, nil
	case KindStyleChange:
		var d styleData
		var u styleUndo
		if err := unmarshal(env, env.Data, &d); err != nil {
			return nil, err
		}
		if err := unmarshal(env, env.UndoData, &u); err != nil {
			return nil, err
		}
		return &StyleChange{Meta: meta, ItemID: d.ItemID, Before: u.Style, After: d.Style}, nil
	default:
		return nil, fmt.Errorf("unknown action type: %s", env.Type)
	}
}

func unmarshal(env Envelope, raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("action %s: missing data", env.Type)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid %s data: %w", env.Type, err)
	}
	return nil
}

// MarshalAction encodes a single action as JSON.
func MarshalAction(a Action) ([]byte, error) {
	env, err := Encode(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalAction decodes a single JSON action.
func UnmarshalAction(b []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("invalid action: %w", err)
	}
	return Decode(env)
}
