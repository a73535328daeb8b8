package repository

import (
	"context"
	"errors"

	"daytracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepositoryInterface interface {
	Create(ctx context.Context, category *model.Category) error
	ResolveActive(ctx context.Context, ownerID, id uuid.UUID) (*model.Category, error)
	FindActiveByName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Category, error)
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

var _ CategoryRepositoryInterface = (*CategoryRepository)(nil)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// ResolveActive returns the owner's category if it exists and is active.
func (r *CategoryRepository) ResolveActive(ctx context.Context, ownerID, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ? AND is_active = ?", ownerID, id, true).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindActiveByName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND LOWER(name) = LOWER(?) AND is_active = ?", ownerID, name, true).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListActive(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("name").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
