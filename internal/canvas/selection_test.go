package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/geometry"
	"github.com/inamate/collage/internal/snap"
)

func snapGuides(center, vertical, horizontal bool) snap.Guides {
	return snap.Guides{Center: center, Vertical: vertical, Horizontal: horizontal}
}

func pointAt(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

func TestSelectionExclusive(t *testing.T) {
	var selected []Selection
	deselected := 0
	m := NewSelectionManager(
		func(s Selection) { selected = append(selected, s) },
		func() { deselected++ },
	)

	m.Select("f1", document.KindPhoto)
	m.Select("stk_1", document.KindSticker)
	m.Select("stk_1", document.KindSticker)

	assert.Len(t, selected, 2)
	assert.False(t, m.IsSelected("f1", document.KindPhoto))
	assert.True(t, m.IsSelected("stk_1", document.KindSticker))

	m.Forget("f1")
	assert.Equal(t, 0, deselected)
	m.Forget("stk_1")
	assert.Equal(t, 1, deselected)

	m.Deselect()
	assert.Equal(t, 1, deselected)
	_, ok := m.Current()
	assert.False(t, ok)
}
