package history

import "sync"

// DefaultCapacity is the number of past actions kept.
const DefaultCapacity = 20

// State is a copy of the log: past oldest first, future next-to-redo first.
type State struct {
	Past    []Action
	Present Action
	Future  []Action
}

// Manager is the bounded past/present/future log. The present is the action
// currently in effect; undo moves it to the front of the future and promotes
// the newest past action.
type Manager struct {
	mu       sync.Mutex
	capacity int
	past     []Action
	present  Action
	future   []Action
}

func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{capacity: capacity}
}

func (m *Manager) Capacity() int { return m.capacity }

// Push records a new action and discards anything that could be redone.
func (m *Manager) Push(a Action) {
	if a == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.present != nil {
		m.past = append(m.past, m.present)
	}
	if over := len(m.past) - m.capacity; over > 0 {
		m.past = append(m.past[:0:0], m.past[over:]...)
	}
	m.present = a
	m.future = nil
}

// Undo steps back one action and returns the new present. It returns false
// when there is nothing in the past.
func (m *Manager) Undo() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.past) == 0 {
		return nil, false
	}
	last := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	if m.present != nil {
		m.future = append([]Action{m.present}, m.future...)
	}
	m.present = last
	return last, true
}

// Redo steps forward one action and returns the new present. It returns false
// when there is nothing to redo.
func (m *Manager) Redo() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.future) == 0 {
		return nil, false
	}
	next := m.future[0]
	m.future = m.future[1:]
	if m.present != nil {
		m.past = append(m.past, m.present)
	}
	m.present = next
	return next, true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past, m.present, m.future = nil, nil, nil
}

// Size is the number of past actions.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past)
}

func (m *Manager) Present() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present, m.present != nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		Past:    append([]Action(nil), m.past...),
		Present: m.present,
		Future:  append([]Action(nil), m.future...),
	}
}

// Summary is the client-facing view of the log.
type Summary struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Size    int  `json:"size"`
}

func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Summary{CanUndo: len(m.past) > 0, CanRedo: len(m.future) > 0, Size: len(m.past)}
}
