// Package store persists users and finished collages. Collages are stored
// whole; the editing history never leaves the session.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/inamate/collage/internal/document"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	Pro          bool      `json:"pro"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	SetPro(ctx context.Context, id string, pro bool) error
}

type CollageStore interface {
	// SaveCollage inserts or replaces a collage by id and stamps it.
	SaveCollage(ctx context.Context, c document.Collage) (document.Collage, error)
	Collage(ctx context.Context, id string) (document.Collage, error)
	// ListCollages returns the owner's collages, most recently updated first.
	ListCollages(ctx context.Context, ownerID string) ([]document.Collage, error)
	DeleteCollage(ctx context.Context, id string) error
}

type Store interface {
	UserStore
	CollageStore
	Close()
}
