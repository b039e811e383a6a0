package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser    = "user"
	PrefixCollage = "collage"
	PrefixSticker = "stk"
	PrefixText    = "txt"
	PrefixAction  = "act"
	PrefixPhoto   = "photo"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string    { return New(PrefixUser) }
func NewCollageID() string { return New(PrefixCollage) }
func NewStickerID() string { return New(PrefixSticker) }
func NewTextID() string    { return New(PrefixText) }
func NewActionID() string  { return New(PrefixAction) }
func NewPhotoID() string   { return New(PrefixPhoto) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
