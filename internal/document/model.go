package document

import "time"

// TransformState is the committed placement of an item relative to its rest
// position (the canvas center). Rotation is in degrees.
type TransformState struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// IdentityTransform is the rest transform {0, 0, 1, 0}.
func IdentityTransform() TransformState {
	return TransformState{Scale: 1}
}

// Normalized replaces a non-positive scale with 1.
func (t TransformState) Normalized() TransformState {
	if t.Scale <= 0 {
		t.Scale = 1
	}
	return t
}

type ItemKind string

const (
	KindPhoto   ItemKind = "photo"
	KindSticker ItemKind = "sticker"
	KindText    ItemKind = "text"
)

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case KindPhoto, KindSticker, KindText:
		return true
	}
	return false
}

type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextStyle is the presentation of a text item. Zero values fall back to the
// renderer's defaults.
type TextStyle struct {
	FontSize        float64 `json:"fontSize,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	StrokeColor     string  `json:"strokeColor,omitempty"`
	ShadowColor     string  `json:"shadowColor,omitempty"`
	ShadowOffset    *Offset `json:"shadowOffset,omitempty"`
	ShadowOpacity   float64 `json:"shadowOpacity,omitempty"`
	ShadowRadius    float64 `json:"shadowRadius,omitempty"`
}

// Equal compares two styles by value, including the shadow offset.
func (s TextStyle) Equal(o TextStyle) bool {
	so, oo := s.ShadowOffset, o.ShadowOffset
	s.ShadowOffset, o.ShadowOffset = nil, nil
	if s != o {
		return false
	}
	if so == nil || oo == nil {
		return so == oo
	}
	return *so == *oo
}

// CanvasItem is a sticker or text overlay placed on the canvas. ContentRef is
// an image URI for stickers and the literal text for text items.
type CanvasItem struct {
	ID         string         `json:"id"`
	Kind       ItemKind       `json:"kind"`
	Transform  TransformState `json:"transform"`
	ContentRef string         `json:"contentRef"`
	Style      *TextStyle     `json:"style,omitempty"`
	IsPremium  bool           `json:"isPremium,omitempty"`
	ZIndex     *int           `json:"zIndex,omitempty"`
}

// PhotoAssignment binds a photo URI to a template frame.
type PhotoAssignment struct {
	FrameID string `json:"frameId"`
	URI     string `json:"uri"`
}

// Collage is a finished (or in-progress) composition as handed to the
// persistence collaborator. It never embeds image bytes.
type Collage struct {
	ID         string            `json:"id"`
	OwnerID    string            `json:"ownerId,omitempty"`
	TemplateID string            `json:"templateId"`
	Thumbnail  string            `json:"thumbnail,omitempty"`
	Photos     []PhotoAssignment `json:"photos"`
	Stickers   []CanvasItem      `json:"stickers"`
	Texts      []CanvasItem      `json:"texts"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// PhotoURI returns the URI assigned to frameID, if any.
func (c *Collage) PhotoURI(frameID string) (string, bool) {
	for _, p := range c.Photos {
		if p.FrameID == frameID {
			return p.URI, true
		}
	}
	return "", false
}
