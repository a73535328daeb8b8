package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskState is the lifecycle state of a task record.
type TaskState string

const (
	// TaskActive tasks are visible in their window.
	TaskActive TaskState = "active"
	// TaskMoved tasks were carried into the next window. The record stays in
	// its original window, hidden, so history over that window still works.
	TaskMoved TaskState = "moved"
	// TaskDeleted tasks are soft-deleted.
	TaskDeleted TaskState = "deleted"
)

// Priority bounds, 1 is the highest.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_tasks_owner_window"`
	CategoryID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title          string     `gorm:"not null"`
	Description    string
	Priority       int        `gorm:"not null"`
	WindowDate     time.Time  `gorm:"not null;index:idx_tasks_owner_window"`
	Completed      bool       `gorm:"not null"`
	CompletedAt    *time.Time
	State          TaskState  `gorm:"type:varchar(16);not null;index"`
	OriginalTaskID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Category Category `gorm:"foreignKey:CategoryID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.State == "" {
		t.State = TaskActive
	}
	return nil
}

func (t *Task) Moved() bool   { return t.State == TaskMoved }
func (t *Task) Deleted() bool { return t.State == TaskDeleted }
