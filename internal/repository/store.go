package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories the core works with. Atomic runs fn inside
// a single database transaction; the Store handed to fn is bound to it and
// must be the only one used until fn returns.
type Store interface {
	Tasks() TaskRepositoryInterface
	Templates() TemplateRepositoryInterface
	Categories() CategoryRepositoryInterface
	Atomic(ctx context.Context, fn func(Store) error) error
}

type GormStore struct {
	db         *gorm.DB
	tasks      *TaskRepository
	templates  *TemplateRepository
	categories *CategoryRepository
}

var _ Store = (*GormStore)(nil)

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:         db,
		tasks:      NewTaskRepository(db),
		templates:  NewTemplateRepository(db),
		categories: NewCategoryRepository(db),
	}
}

func (s *GormStore) Tasks() TaskRepositoryInterface         { return s.tasks }
func (s *GormStore) Templates() TemplateRepositoryInterface { return s.templates }
func (s *GormStore) Categories() CategoryRepositoryInterface {
	return s.categories
}

func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
