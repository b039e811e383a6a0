package canvas

import "github.com/inamate/collage/internal/document"

// Selection identifies the selected item. Frames are selected with
// document.KindPhoto and their frame id.
type Selection struct {
	ID   string            `json:"id"`
	Kind document.ItemKind `json:"kind"`
}

// SelectionManager holds the single selection of a canvas. Selecting any item
// replaces the previous selection.
type SelectionManager struct {
	current    *Selection
	onSelect   func(Selection)
	onDeselect func()
}

func NewSelectionManager(onSelect func(Selection), onDeselect func()) *SelectionManager {
	return &SelectionManager{onSelect: onSelect, onDeselect: onDeselect}
}

// Select makes id the selection. Selecting the current selection again is a
// no-op.
func (m *SelectionManager) Select(id string, kind document.ItemKind) {
	if m.current != nil && m.current.ID == id && m.current.Kind == kind {
		return
	}
	m.current = &Selection{ID: id, Kind: kind}
	if m.onSelect != nil {
		m.onSelect(*m.current)
	}
}

// Deselect clears the selection, firing the callback only if there was one.
func (m *SelectionManager) Deselect() {
	if m.current == nil {
		return
	}
	m.current = nil
	if m.onDeselect != nil {
		m.onDeselect()
	}
}

// Forget clears the selection if it is id, for example when the item is
// removed.
func (m *SelectionManager) Forget(id string) {
	if m.current != nil && m.current.ID == id {
		m.Deselect()
	}
}

func (m *SelectionManager) Current() (Selection, bool) {
	if m.current == nil {
		return Selection{}, false
	}
	return *m.current, true
}

func (m *SelectionManager) IsSelected(id string, kind document.ItemKind) bool {
	return m.current != nil && m.current.ID == id && m.current.Kind == kind
}
