package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"
	"daytracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TemplateInput creates a template.
type TemplateInput struct {
	Name         string
	Description  string
	CategoryID   uuid.UUID
	TaskTemplate model.TaskBlueprint
	Recurrence   RecurrenceInput
	IsActive     *bool
}

// RecurrenceInput is a schedule as callers supply it. A nil Time fires at
// the day boundary.
type RecurrenceInput struct {
	Type       model.RecurrenceType
	Interval   int
	DaysOfWeek []int
	DayOfMonth int
	Time       *model.FireTime
}

// TemplateUpdate is a partial update; nil fields are left alone.
type TemplateUpdate struct {
	Name         *string
	Description  *string
	CategoryID   *uuid.UUID
	TaskTemplate *model.TaskBlueprint
	Recurrence   *RecurrenceInput
	IsActive     *bool
}

// FiringResult reports one template of a ProcessPending batch.
type FiringResult struct {
	TemplateID uuid.UUID  `json:"template_id"`
	Template   string     `json:"template"`
	Task       string     `json:"task"`
	TaskID     *uuid.UUID `json:"task_id,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
}

type ProcessResult struct {
	ProcessedCount int            `json:"processed_count"`
	Results        []FiringResult `json:"results"`
}

type CategoryCount struct {
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	Count      int       `json:"count"`
}

type TemplateStats struct {
	Total        int             `json:"total_templates"`
	Active       int             `json:"active_templates"`
	Inactive     int             `json:"inactive_templates"`
	TasksCreated int             `json:"total_tasks_created"`
	ByCategory   []CategoryCount `json:"by_category"`
}

// TemplateService manages recurring templates and fires them.
type TemplateService struct {
	store repository.Store
	tasks *TaskService
	clock Clock
}

func NewTemplateService(store repository.Store, tasks *TaskService, clock Clock) *TemplateService {
	return &TemplateService{store: store, tasks: tasks, clock: clock}
}

func (s *TemplateService) Create(ctx context.Context, ownerID uuid.UUID, in TemplateInput) (*model.Template, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	blueprint, err := normalizeBlueprint(in.TaskTemplate)
	if err != nil {
		return nil, err
	}
	rec, err := normalizeRecurrence(in.Recurrence)
	if err != nil {
		return nil, err
	}
	category, err := resolveCategory(ctx, s.store, ownerID, in.CategoryID)
	if err != nil {
		return nil, err
	}

	tpl := &model.Template{
		OwnerID:      ownerID,
		CategoryID:   category.ID,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		TaskTemplate: blueprint,
		Recurrence:   rec,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	tpl.NextRun = CalculateNextRun(tpl, s.clock.Now())

	if err := s.store.Templates().Create(ctx, tpl); err != nil {
		return nil, storage("create template", err)
	}
	tpl.Category = *category
	return tpl, nil
}

func (s *TemplateService) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error) {
	return getTemplate(ctx, s.store, ownerID, id)
}

func (s *TemplateService) List(ctx context.Context, ownerID uuid.UUID) ([]model.Template, error) {
	templates, err := s.store.Templates().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storage("list templates", err)
	}
	return templates, nil
}

// Update applies a partial update. nextRun is recomputed when the
// recurrence changes or the template is switched back on.
func (s *TemplateService) Update(ctx context.Context, ownerID, id uuid.UUID, in TemplateUpdate) (*model.Template, error) {
	tpl, err := getTemplate(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, err
	}

	recompute := false
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationf("name is required")
		}
		tpl.Name = name
	}
	if in.Description != nil {
		tpl.Description = strings.TrimSpace(*in.Description)
	}
	if in.CategoryID != nil {
		category, err := resolveCategory(ctx, s.store, ownerID, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		tpl.CategoryID = category.ID
		tpl.Category = *category
	}
	if in.TaskTemplate != nil {
		blueprint, err := normalizeBlueprint(*in.TaskTemplate)
		if err != nil {
			return nil, err
		}
		tpl.TaskTemplate = blueprint
	}
	if in.Recurrence != nil {
		rec, err := normalizeRecurrence(*in.Recurrence)
		if err != nil {
			return nil, err
		}
		tpl.Recurrence = rec
		recompute = true
	}
	if in.IsActive != nil {
		if *in.IsActive && !tpl.IsActive {
			recompute = true
		}
		tpl.IsActive = *in.IsActive
	}
	if recompute {
		tpl.NextRun = CalculateNextRun(tpl, s.clock.Now())
	}

	if err := s.store.Templates().Save(ctx, tpl); err != nil {
		return nil, storage("update template", err)
	}
	return tpl, nil
}

func (s *TemplateService) Delete(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error) {
	tpl, err := getTemplate(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Templates().Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, notFound("template")
		}
		return nil, storage("delete template", err)
	}
	return tpl, nil
}

// Toggle flips isActive. Reactivation recomputes nextRun.
func (s *TemplateService) Toggle(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error) {
	tpl, err := getTemplate(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, err
	}
	tpl.IsActive = !tpl.IsActive
	if tpl.IsActive {
		tpl.NextRun = CalculateNextRun(tpl, s.clock.Now())
	}
	if err := s.store.Templates().Save(ctx, tpl); err != nil {
		return nil, storage("toggle template", err)
	}
	return tpl, nil
}

// Run creates the template's task in today's window right away. The
// schedule itself is left alone.
func (s *TemplateService) Run(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, *model.Template, error) {
	tpl, err := getTemplate(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	if !tpl.IsActive {
		return nil, nil, invalidOperation("cannot run inactive template")
	}

	now := s.clock.Now()
	today := daywindow.Compute(now)
	var task *model.Task
	err = s.store.Atomic(ctx, func(st repository.Store) error {
		var err error
		task, err = s.tasks.createWith(ctx, st, ownerID, blueprintInput(tpl, today))
		if err != nil {
			return err
		}
		return st.Templates().UpdateFields(ctx, tpl.ID, map[string]interface{}{
			"last_run":            now,
			"created_tasks_count": gorm.Expr("created_tasks_count + ?", 1),
		})
	})
	if err != nil {
		return nil, nil, storage("run template", err)
	}

	tpl, err = getTemplate(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	return task, tpl, nil
}

// ProcessPending fires every active template of the owner that is due at
// now. A template whose task already exists in the current window is
// skipped, but its schedule still advances. Failures are reported per
// template and do not stop the batch.
func (s *TemplateService) ProcessPending(ctx context.Context, ownerID uuid.UUID, now time.Time) (*ProcessResult, error) {
	due, err := s.store.Templates().FindDue(ctx, ownerID, now)
	if err != nil {
		return nil, storage("find due templates", err)
	}

	window := daywindow.Compute(now)
	out := &ProcessResult{ProcessedCount: len(due), Results: make([]FiringResult, 0, len(due))}
	for i := range due {
		tpl := &due[i]
		res := FiringResult{TemplateID: tpl.ID, Template: tpl.Name, Task: tpl.TaskTemplate.Title}

		err := s.store.Atomic(ctx, func(st repository.Store) error {
			existing, err := st.Tasks().FindOne(ctx, repository.TaskQuery{
				OwnerID:    ownerID,
				Window:     &window,
				Title:      tpl.TaskTemplate.Title,
				CategoryID: &tpl.CategoryID,
				States:     repository.Visible,
			})
			if err != nil {
				return storage("look up existing task", err)
			}
			if existing == nil {
				task, err := s.tasks.createWith(ctx, st, ownerID, blueprintInput(tpl, window))
				if err != nil {
					return err
				}
				res.TaskID = &task.ID
				res.Status = StatusCreated
			} else {
				res.Status = StatusSkipped
			}

			return storage("advance schedule", st.Templates().UpdateFields(ctx, tpl.ID, map[string]interface{}{
				"last_run":            now,
				"next_run":            CalculateNextRun(tpl, now),
				"created_tasks_count": gorm.Expr("created_tasks_count + ?", 1),
			}))
		})
		if err != nil {
			zap.L().Error("template firing failed",
				zap.String("template_id", tpl.ID.String()),
				zap.String("template", tpl.Name),
				zap.Error(err),
			)
			res.TaskID = nil
			res.Status = StatusError
			res.Error = err.Error()
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

// DueOwners lists owners with templates due at now.
func (s *TemplateService) DueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	owners, err := s.store.Templates().DueOwners(ctx, now)
	if err != nil {
		return nil, storage("find due owners", err)
	}
	return owners, nil
}

func (s *TemplateService) Stats(ctx context.Context, ownerID uuid.UUID) (*TemplateStats, error) {
	templates, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &TemplateStats{Total: len(templates), ByCategory: []CategoryCount{}}
	index := map[uuid.UUID]int{}
	for _, tpl := range templates {
		stats.TasksCreated += tpl.CreatedTasksCount
		if !tpl.IsActive {
			stats.Inactive++
			continue
		}
		stats.Active++
		i, ok := index[tpl.CategoryID]
		if !ok {
			i = len(stats.ByCategory)
			index[tpl.CategoryID] = i
			stats.ByCategory = append(stats.ByCategory, CategoryCount{CategoryID: tpl.CategoryID, Name: tpl.Category.Name})
		}
		stats.ByCategory[i].Count++
	}
	return stats, nil
}

func blueprintInput(tpl *model.Template, w daywindow.Window) CreateTaskInput {
	start := w.Start
	return CreateTaskInput{
		Title:       tpl.TaskTemplate.Title,
		Description: tpl.TaskTemplate.Description,
		Priority:    tpl.TaskTemplate.Priority,
		CategoryID:  tpl.CategoryID,
		Date:        &start,
	}
}

func getTemplate(ctx context.Context, st repository.Store, ownerID, id uuid.UUID) (*model.Template, error) {
	tpl, err := st.Templates().GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, notFound("template")
		}
		return nil, storage("get template", err)
	}
	return tpl, nil
}

func normalizeBlueprint(b model.TaskBlueprint) (model.TaskBlueprint, error) {
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	if b.Title == "" {
		return b, validationf("task title is required")
	}
	if b.Priority == 0 {
		b.Priority = model.PriorityMedium
	}
	if err := validatePriority(b.Priority); err != nil {
		return b, err
	}
	return b, nil
}

func normalizeRecurrence(in RecurrenceInput) (model.Recurrence, error) {
	r := model.Recurrence{
		Type:       in.Type,
		Interval:   in.Interval,
		DaysOfWeek: in.DaysOfWeek,
		DayOfMonth: in.DayOfMonth,
		Time:       model.FireTime{Hour: daywindow.BoundaryHour},
	}
	if in.Time != nil {
		r.Time = *in.Time
	}

	switch r.Type {
	case model.RecurDaily, model.RecurWeekly, model.RecurMonthly, model.RecurCustom:
	case "":
		return r, validationf("recurrence type is required")
	default:
		return r, validationf("unknown recurrence type %q", r.Type)
	}
	if r.Interval == 0 {
		r.Interval = 1
	}
	if r.Interval < 1 {
		return r, validationf("interval must be at least 1")
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return r, validationf("days of week must be between 0 and 6")
		}
	}
	if r.DayOfMonth < 0 || r.DayOfMonth > 31 {
		return r, validationf("day of month must be between 1 and 31")
	}
	if r.Time.Hour < 0 || r.Time.Hour > 23 {
		return r, validationf("hour must be between 0 and 23")
	}
	if r.Time.Minute < 0 || r.Time.Minute > 59 {
		return r, validationf("minute must be between 0 and 59")
	}
	return r, nil
}
