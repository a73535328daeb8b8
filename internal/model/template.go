package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
	RecurCustom  RecurrenceType = "custom"
)

// TaskBlueprint is what a firing template turns into.
type TaskBlueprint struct {
	Title       string `gorm:"not null"`
	Description string
	Priority    int `gorm:"not null"`
}

type FireTime struct {
	Hour   int
	Minute int
}

type Recurrence struct {
	Type       RecurrenceType         `gorm:"type:varchar(16);not null"`
	Interval   int                    `gorm:"not null"`
	DaysOfWeek datatypes.JSONSlice[int] // 0 = Sunday
	DayOfMonth int
	Time       FireTime `gorm:"embedded;embeddedPrefix:time_"`
}

// Template produces tasks on a recurring schedule.
type Template struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey"`
	OwnerID           uuid.UUID     `gorm:"type:uuid;not null;index"`
	CategoryID        uuid.UUID     `gorm:"type:uuid;not null;index"`
	Name              string        `gorm:"not null"`
	Description       string
	TaskTemplate      TaskBlueprint `gorm:"embedded;embeddedPrefix:task_"`
	Recurrence        Recurrence    `gorm:"embedded;embeddedPrefix:recur_"`
	IsActive          bool          `gorm:"not null;index:idx_templates_due"`
	NextRun           time.Time     `gorm:"not null;index:idx_templates_due"`
	LastRun           *time.Time
	CreatedTasksCount int `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Category Category `gorm:"foreignKey:CategoryID"`
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
