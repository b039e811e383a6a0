package document

func z(v int) *int { return &v }

var catalog = []Template{
	{
		ID: "grid-2x1", Name: "Side by Side", Category: CategoryGrid, AspectRatio: AspectSquare,
		Frames: []Frame{
			{ID: "f1", X: 0, Y: 0, Width: 50, Height: 100},
			{ID: "f2", X: 50, Y: 0, Width: 50, Height: 100},
		},
	},
	{
		ID: "grid-1x2", Name: "Top & Bottom", Category: CategoryGrid, AspectRatio: AspectSquare,
		Frames: []Frame{
			{ID: "f1", X: 0, Y: 0, Width: 100, Height: 50},
			{ID: "f2", X: 0, Y: 50, Width: 100, Height: 50},
		},
	},
	{
		ID: "grid-2x2", Name: "Classic Grid", Category: CategoryGrid, AspectRatio: AspectSquare,
		Frames: []Frame{
			{ID: "f1", X: 0, Y: 0, Width: 50, Height: 50},
			{ID: "f2", X: 50, Y: 0, Width: 50, Height: 50},
			{ID: "f3", X: 0, Y: 50, Width: 50, Height: 50},
			{ID: "f4", X: 50, Y: 50, Width: 50, Height: 50},
		},
	},
	{
		ID: "grid-3x1", Name: "Triple Strip", Category: CategoryGrid, AspectRatio: AspectSquare,
		Frames: []Frame{
			{ID: "f1", X: 0, Y: 0, Width: 33.33, Height: 100},
			{ID: "f2", X: 33.33, Y: 0, Width: 33.34, Height: 100},
			{ID: "f3", X: 66.67, Y: 0, Width: 33.33, Height: 100},
		},
	},
	{
		ID: "creative-polaroid", Name: "Polaroid Stack", Category: CategoryCreative, AspectRatio: AspectPortrait,
		Frames: []Frame{
			{ID: "f1", X: 8, Y: 10, Width: 55, Height: 45, Rotation: -8, ZIndex: z(1)},
			{ID: "f2", X: 38, Y: 30, Width: 55, Height: 45, Rotation: 6, ZIndex: z(2)},
			{ID: "f3", X: 15, Y: 52, Width: 55, Height: 40, Rotation: -3, ZIndex: z(3)},
		},
	},
	{
		ID: "creative-hero", Name: "Hero & Thumbs", Category: CategoryCreative, AspectRatio: AspectSquare,
		Frames: []Frame{
			{ID: "f1", X: 0, Y: 0, Width: 100, Height: 66},
			{ID: "f2", X: 0, Y: 66, Width: 33.33, Height: 34},
			{ID: "f3", X: 33.33, Y: 66, Width: 33.34, Height: 34},
			{ID: "f4", X: 66.67, Y: 66, Width: 33.33, Height: 34},
		},
	},
	{
		ID: "minimal-single", Name: "Single Frame", Category: CategoryMinimal, AspectRatio: AspectPortrait,
		Frames: []Frame{
			{ID: "f1", X: 10, Y: 10, Width: 80, Height: 80},
		},
	},
	{
		ID: "minimal-story", Name: "Story Duo", Category: CategoryMinimal, AspectRatio: AspectStory,
		Frames: []Frame{
			{ID: "f1", X: 5, Y: 5, Width: 90, Height: 43},
			{ID: "f2", X: 5, Y: 52, Width: 90, Height: 43},
		},
	},
	{
		ID: "artistic-diagonal", Name: "Diagonal Cut", Category: CategoryArtistic, AspectRatio: AspectSquare,
		IsPremium: true,
		Frames: []Frame{
			{ID: "f1", X: -10, Y: -10, Width: 80, Height: 70, Rotation: 12, ZIndex: z(1)},
			{ID: "f2", X: 30, Y: 40, Width: 80, Height: 70, Rotation: 12, ZIndex: z(0)},
		},
	},
	{
		ID: "artistic-mosaic", Name: "Mosaic", Category: CategoryArtistic, AspectRatio: AspectStory,
		IsPremium: true,
		Frames: []Frame{
			{ID: "f1", X: 0, Y: 0, Width: 60, Height: 40},
			{ID: "f2", X: 60, Y: 0, Width: 40, Height: 25},
			{ID: "f3", X: 60, Y: 25, Width: 40, Height: 35},
			{ID: "f4", X: 0, Y: 40, Width: 40, Height: 60},
			{ID: "f5", X: 40, Y: 60, Width: 60, Height: 40},
		},
	},
}

// Templates returns a copy of the built-in template catalog.
func Templates() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// TemplateByID looks up a built-in template.
func TemplateByID(id string) (Template, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// TemplatesByCategory returns the built-in templates in a category, in catalog order.
func TemplatesByCategory(c Category) []Template {
	var out []Template
	for _, t := range catalog {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}
