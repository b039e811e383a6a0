package document

// AspectRatio is the canvas shape a template is designed for.
type AspectRatio string

const (
	AspectSquare   AspectRatio = "1:1"
	AspectPortrait AspectRatio = "4:5"
	AspectStory    AspectRatio = "9:16"
	AspectFree     AspectRatio = "freeform"
)

// HeightFactor is the canvas height as a multiple of its width.
func (a AspectRatio) HeightFactor() float64 {
	switch a {
	case AspectPortrait:
		return 1.25
	case AspectStory:
		return 1.78
	default:
		return 1
	}
}

type Category string

const (
	CategoryGrid     Category = "grid"
	CategoryCreative Category = "creative"
	CategoryMinimal  Category = "minimal"
	CategoryArtistic Category = "artistic"
)

// Frame is a template slot. Position and size are percentages (0-100) of the
// canvas; rotation is in degrees.
type Frame struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
	ZIndex   *int    `json:"zIndex,omitempty"`
}

type Template struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    Category    `json:"category"`
	AspectRatio AspectRatio `json:"aspectRatio"`
	Frames      []Frame     `json:"frames"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	IsPremium   bool        `json:"isPremium,omitempty"`
}

// Frame returns the frame with the given id.
func (t *Template) Frame(id string) (Frame, bool) {
	for _, f := range t.Frames {
		if f.ID == id {
			return f, true
		}
	}
	return Frame{}, false
}
