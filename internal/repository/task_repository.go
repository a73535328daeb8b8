package repository

import (
	"context"
	"errors"
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskQuery narrows a task lookup. Zero fields are ignored; OwnerID is
// always applied.
type TaskQuery struct {
	OwnerID    uuid.UUID
	IDs        []uuid.UUID
	Window     *daywindow.Window
	Title      string
	TitleFold  bool // compare Title case-insensitively
	CategoryID *uuid.UUID
	Priority   *int
	States     []model.TaskState
	Completed  *bool
	ExcludeID  *uuid.UUID
}

func (q TaskQuery) apply(db *gorm.DB) *gorm.DB {
	db = db.Where("owner_id = ?", q.OwnerID)
	if len(q.IDs) > 0 {
		db = db.Where("id IN ?", q.IDs)
	}
	if q.Window != nil {
		db = db.Where("window_date >= ? AND window_date < ?", q.Window.Start, q.Window.End)
	}
	if q.Title != "" {
		if q.TitleFold {
			db = db.Where("LOWER(title) = LOWER(?)", q.Title)
		} else {
			db = db.Where("title = ?", q.Title)
		}
	}
	if q.CategoryID != nil {
		db = db.Where("category_id = ?", *q.CategoryID)
	}
	if q.Priority != nil {
		db = db.Where("priority = ?", *q.Priority)
	}
	if len(q.States) > 0 {
		db = db.Where("state IN ?", q.States)
	}
	if q.Completed != nil {
		db = db.Where("completed = ?", *q.Completed)
	}
	if q.ExcludeID != nil {
		db = db.Where("id <> ?", *q.ExcludeID)
	}
	return db
}

// Visible are the states a lookup treats as present: active and moved.
var Visible = []model.TaskState{model.TaskActive, model.TaskMoved}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error)
	Find(ctx context.Context, q TaskQuery) ([]model.Task, error)
	FindOne(ctx context.Context, q TaskQuery) (*model.Task, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMatching(ctx context.Context, q TaskQuery) (int64, error)
	CompletedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]model.Task, error)
	OwnersWithOpenTasks(ctx context.Context, w daywindow.Window) ([]uuid.UUID, error)
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// GetByID retrieves a task owned by ownerID, with its category
func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Category").
		Where("owner_id = ?", ownerID).
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// Find returns matching tasks ordered by priority, then creation time
func (r *TaskRepository) Find(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	var tasks []model.Task
	result := q.apply(r.db.WithContext(ctx).Preload("Category")).
		Order("priority").
		Order("created_at").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// FindOne returns the first match, or nil when nothing matches
func (r *TaskRepository) FindOne(ctx context.Context, q TaskQuery) (*model.Task, error) {
	var tasks []model.Task
	if err := q.apply(r.db.WithContext(ctx)).Order("created_at").Limit(1).Find(&tasks).Error; err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// UpdateFields applies a partial update to a single task
func (r *TaskRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteMatching hard-deletes every task matching q
func (r *TaskRepository) DeleteMatching(ctx context.Context, q TaskQuery) (int64, error) {
	result := q.apply(r.db.WithContext(ctx)).Delete(&model.Task{})
	return result.RowsAffected, result.Error
}

// CompletedSince lists completed, non-deleted tasks with completed_at >= since
func (r *TaskRepository) CompletedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND completed = ? AND completed_at >= ? AND state <> ?", ownerID, true, since, model.TaskDeleted).
		Order("completed_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// OwnersWithOpenTasks lists owners that still have unfinished active tasks in w
func (r *TaskRepository) OwnersWithOpenTasks(ctx context.Context, w daywindow.Window) ([]uuid.UUID, error) {
	var owners []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("window_date >= ? AND window_date < ?", w.Start, w.End).
		Where("state = ? AND completed = ?", model.TaskActive, false).
		Distinct().
		Pluck("owner_id", &owners).Error
	return owners, err
}
