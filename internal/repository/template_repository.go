package repository

import (
	"context"
	"errors"
	"time"

	"daytracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, tpl *model.Template) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Template, error)
	FindDue(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]model.Template, error)
	DueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	Save(ctx context.Context, tpl *model.Template) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, tpl *model.Template) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(tpl).Error
}

func (r *TemplateRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error) {
	var tpl model.Template
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Template, error) {
	var templates []model.Template
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&templates).Error
	return templates, err
}

// FindDue returns the owner's active templates whose next run is not after now.
func (r *TemplateRepository) FindDue(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]model.Template, error) {
	var templates []model.Template
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ? AND next_run <= ?", ownerID, true, now).
		Order("next_run").
		Find(&templates).Error
	return templates, err
}

// DueOwners lists owners with at least one due template.
func (r *TemplateRepository) DueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Template{}).
		Where("is_active = ? AND next_run <= ?", true, now).
		Distinct().
		Pluck("owner_id", &owners).Error
	return owners, err
}

// Save writes every column of tpl.
func (r *TemplateRepository) Save(ctx context.Context, tpl *model.Template) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(tpl)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *TemplateRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Template{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Template{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
