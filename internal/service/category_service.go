package service

import (
	"context"
	"errors"
	"strings"

	"daytracker/internal/model"
	"daytracker/internal/repository"

	"github.com/google/uuid"
)

type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

// CategoryService provides helpers around categories.
type CategoryService struct {
	store repository.Store
}

func NewCategoryService(store repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error) {
	categories, err := s.store.Categories().ListActive(ctx, ownerID)
	if err != nil {
		return nil, storage("list categories", err)
	}
	return categories, nil
}

// Create adds a category; active names are unique per owner.
func (s *CategoryService) Create(ctx context.Context, ownerID uuid.UUID, in CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	existing, err := s.store.Categories().FindActiveByName(ctx, ownerID, name)
	if err != nil {
		return nil, storage("find category", err)
	}
	if existing != nil {
		return nil, conflictf("category %q already exists", name)
	}

	category := &model.Category{
		OwnerID:  ownerID,
		Name:     name,
		Color:    in.Color,
		Icon:     in.Icon,
		IsActive: true,
	}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		return nil, storage("create category", err)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id uuid.UUID, in CategoryInput) (*model.Category, error) {
	category, err := s.resolve(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if name := strings.TrimSpace(in.Name); name != "" && name != category.Name {
		clash, err := s.store.Categories().FindActiveByName(ctx, ownerID, name)
		if err != nil {
			return nil, storage("find category", err)
		}
		if clash != nil && clash.ID != id {
			return nil, conflictf("category %q already exists", name)
		}
		fields["name"] = name
	}
	if in.Color != "" {
		fields["color"] = in.Color
	}
	if in.Icon != "" {
		fields["icon"] = in.Icon
	}
	if len(fields) > 0 {
		if err := s.store.Categories().UpdateFields(ctx, id, fields); err != nil {
			return nil, storage("update category", err)
		}
	}
	return s.resolve(ctx, ownerID, id)
}

// Delete deactivates the category. Tasks keep their reference.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.resolve(ctx, ownerID, id); err != nil {
		return err
	}
	return storage("delete category", s.store.Categories().UpdateFields(ctx, id, map[string]interface{}{
		"is_active": false,
	}))
}

func (s *CategoryService) resolve(ctx context.Context, ownerID, id uuid.UUID) (*model.Category, error) {
	category, err := s.store.Categories().ResolveActive(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, notFound("category")
		}
		return nil, storage("get category", err)
	}
	return category, nil
}
