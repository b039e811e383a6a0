package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/inamate/collage/internal/document"
)

// Memory keeps everything in process. Collages are stored as JSON so callers
// never share slices with the store.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]User
	emails   map[string]string
	collages map[string][]byte
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]User),
		emails:   make(map[string]string),
		collages: make(map[string][]byte),
		now:      time.Now,
	}
}

func (m *Memory) Close() {}

func (m *Memory) CreateUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := m.emails[key]; ok {
		return User{}, fmt.Errorf("user %s: %w", u.Email, ErrConflict)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now().UTC()
	}
	m.users[u.ID] = u
	m.emails[key] = u.ID
	return u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) UserByID(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) SetPro(_ context.Context, id string, pro bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Pro = pro
	m.users[id] = u
	return nil
}

func (m *Memory) SaveCollage(_ context.Context, c document.Collage) (document.Collage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if prev, ok := m.collages[c.ID]; ok {
		var old document.Collage
		if err := json.Unmarshal(prev, &old); err == nil {
			c.CreatedAt = old.CreatedAt
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	data, err := json.Marshal(c)
	if err != nil {
		return document.Collage{}, fmt.Errorf("marshal collage: %w", err)
	}
	m.collages[c.ID] = data
	return c, nil
}

func (m *Memory) Collage(_ context.Context, id string) (document.Collage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collages[id]
	if !ok {
		return document.Collage{}, ErrNotFound
	}
	var c document.Collage
	if err := json.Unmarshal(data, &c); err != nil {
		return document.Collage{}, fmt.Errorf("unmarshal collage: %w", err)
	}
	return c, nil
}

func (m *Memory) ListCollages(_ context.Context, ownerID string) ([]document.Collage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]document.Collage, 0)
	for _, data := range m.collages {
		var c document.Collage
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshal collage: %w", err)
		}
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b document.Collage) int {
		return cmp.Or(b.UpdatedAt.Compare(a.UpdatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *Memory) DeleteCollage(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collages[id]; !ok {
		return ErrNotFound
	}
	delete(m.collages, id)
	return nil
}
