// Package collage serves saved collages and the template catalog over HTTP.
package collage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/collage/internal/document"
	"github.com/inamate/collage/internal/premium"
	"github.com/inamate/collage/internal/store"
	"github.com/inamate/collage/internal/typeid"
)

var (
	ErrNotFound        = errors.New("collage not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalid         = errors.New("invalid collage")
	ErrUpgradeRequired = errors.New("upgrade required")
)

type Service struct {
	collages store.CollageStore
	users    store.UserStore
}

func NewService(collages store.CollageStore, users store.UserStore) *Service {
	return &Service{collages: collages, users: users}
}

// Save stores c for ownerID. An empty id creates a new collage; an existing
// id must belong to the owner.
func (s *Service) Save(ctx context.Context, c document.Collage, ownerID string) (document.Collage, error) {
	tmpl, ok := document.TemplateByID(c.TemplateID)
	if !ok {
		return document.Collage{}, fmt.Errorf("%w: unknown template %q", ErrInvalid, c.TemplateID)
	}
	if err := validate(tmpl, c); err != nil {
		return document.Collage{}, err
	}
	if err := s.checkEntitlement(ctx, tmpl, c, ownerID); err != nil {
		return document.Collage{}, err
	}

	if c.ID == "" {
		c.ID = typeid.NewCollageID()
		c.CreatedAt = time.Time{}
	} else {
		if err := typeid.Validate(c.ID, typeid.PrefixCollage); err != nil {
			return document.Collage{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		existing, err := s.collages.Collage(ctx, c.ID)
		switch {
		case err == nil:
			if existing.OwnerID != ownerID {
				return document.Collage{}, ErrForbidden
			}
		case !errors.Is(err, store.ErrNotFound):
			return document.Collage{}, fmt.Errorf("get collage: %w", err)
		}
	}
	c.OwnerID = ownerID

	saved, err := s.collages.SaveCollage(ctx, c)
	if err != nil {
		return document.Collage{}, fmt.Errorf("save collage: %w", err)
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context, collageID, userID string) (document.Collage, error) {
	c, err := s.collages.Collage(ctx, collageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return document.Collage{}, ErrNotFound
		}
		return document.Collage{}, fmt.Errorf("get collage: %w", err)
	}
	if c.OwnerID != userID {
		return document.Collage{}, ErrForbidden
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]document.Collage, error) {
	collages, err := s.collages.ListCollages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list collages: %w", err)
	}
	return collages, nil
}

func (s *Service) Delete(ctx context.Context, collageID, userID string) error {
	if _, err := s.Get(ctx, collageID, userID); err != nil {
		return err
	}
	if err := s.collages.DeleteCollage(ctx, collageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete collage: %w", err)
	}
	return nil
}

func validate(tmpl document.Template, c document.Collage) error {
	seen := make(map[string]bool, len(c.Photos))
	for _, p := range c.Photos {
		if _, ok := tmpl.Frame(p.FrameID); !ok {
			return fmt.Errorf("%w: template %s has no frame %q", ErrInvalid, tmpl.ID, p.FrameID)
		}
		if seen[p.FrameID] {
			return fmt.Errorf("%w: frame %q assigned twice", ErrInvalid, p.FrameID)
		}
		if p.URI == "" {
			return fmt.Errorf("%w: frame %q has no photo", ErrInvalid, p.FrameID)
		}
		seen[p.FrameID] = true
	}
	ids := make(map[string]bool)
	for _, layer := range [][]document.CanvasItem{c.Stickers, c.Texts} {
		for _, it := range layer {
			if it.ID == "" || ids[it.ID] {
				return fmt.Errorf("%w: missing or duplicate item id %q", ErrInvalid, it.ID)
			}
			ids[it.ID] = true
		}
	}
	return nil
}

// checkEntitlement refuses premium templates and premium stickers for owners
// without the pro entitlement.
func (s *Service) checkEntitlement(ctx context.Context, tmpl document.Template, c document.Collage, ownerID string) error {
	feature := ""
	if tmpl.IsPremium {
		feature = premium.FeaturePremiumTemplates
	} else {
		for _, it := range c.Stickers {
			if it.IsPremium {
				feature = premium.FeaturePremiumStickers
				break
			}
		}
	}
	if feature == "" {
		return nil
	}

	u, err := s.users.UserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("get user: %w", err)
	}
	if !premium.NewGate(u.Pro, nil).CanAccess(feature) {
		return fmt.Errorf("%w: %s", ErrUpgradeRequired, feature)
	}
	return nil
}
