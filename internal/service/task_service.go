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
)

// Batch item statuses.
const (
	StatusMoved   = "moved"
	StatusMerged  = "merged"
	StatusCreated = "created"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// CreateTaskInput represents data required to create a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    int
	CategoryID  uuid.UUID
	// Date picks the window; nil means today.
	Date *time.Time
}

// UpdateTaskInput is a partial update; nil fields are left alone.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *int
	CategoryID  *uuid.UUID
	Completed   *bool
	CompletedAt *time.Time
}

// ItemResult reports what happened to one task of a batch.
type ItemResult struct {
	TaskID uuid.UUID `json:"task_id"`
	Title  string    `json:"title"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

type MoveForwardResult struct {
	Created      []model.Task
	MovedTaskIDs []uuid.UUID
	Results      []ItemResult
}

// DayView is what the main screen shows: today's visible tasks and
// everything already planned for tomorrow.
type DayView struct {
	Today         daywindow.Window
	TodayTasks    []model.Task
	TomorrowTasks []model.Task
}

// TaskService implements the task lifecycle and priority ordering.
type TaskService struct {
	store repository.Store
	clock Clock
}

func NewTaskService(store repository.Store, clock Clock) *TaskService {
	return &TaskService{store: store, clock: clock}
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	return s.createWith(ctx, s.store, ownerID, in)
}

func (s *TaskService) createWith(ctx context.Context, st repository.Store, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if err := validatePriority(in.Priority); err != nil {
		return nil, err
	}
	category, err := resolveCategory(ctx, st, ownerID, in.CategoryID)
	if err != nil {
		return nil, err
	}

	window := daywindow.Today(s.clock)
	if in.Date != nil {
		window = daywindow.Compute(in.Date.In(s.clock.Now().Location()))
	}

	task := &model.Task{
		OwnerID:     ownerID,
		CategoryID:  category.ID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    in.Priority,
		WindowDate:  window.Start,
		State:       model.TaskActive,
	}
	if err := st.Tasks().Create(ctx, task); err != nil {
		return nil, storage("create task", err)
	}
	task.Category = *category
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	return getTask(ctx, s.store, ownerID, id)
}

// Update applies a partial update. Completion follows Complete's rules.
func (s *TaskService) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateTaskInput) (*model.Task, error) {
	task, err := getTask(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, validationf("title is required")
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Priority != nil {
		if err := validatePriority(*in.Priority); err != nil {
			return nil, err
		}
		fields["priority"] = *in.Priority
	}
	if in.CategoryID != nil {
		if _, err := resolveCategory(ctx, s.store, ownerID, *in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *in.CategoryID
	}
	if in.Completed != nil {
		for k, v := range s.completionFields(*in.Completed, in.CompletedAt) {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return task, nil
	}

	if err := s.store.Tasks().UpdateFields(ctx, task.ID, fields); err != nil {
		return nil, storage("update task", err)
	}
	return getTask(ctx, s.store, ownerID, id)
}

// Complete toggles completion. Marking a task done stamps completedAt with
// the supplied time or now; un-completing keeps the old stamp.
func (s *TaskService) Complete(ctx context.Context, ownerID, id uuid.UUID, completed bool, completedAt *time.Time) (*model.Task, error) {
	task, err := getTask(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Tasks().UpdateFields(ctx, task.ID, s.completionFields(completed, completedAt)); err != nil {
		return nil, storage("complete task", err)
	}
	return getTask(ctx, s.store, ownerID, id)
}

func (s *TaskService) completionFields(completed bool, completedAt *time.Time) map[string]interface{} {
	fields := map[string]interface{}{"completed": completed}
	if completed {
		at := s.clock.Now()
		if completedAt != nil {
			at = *completedAt
		}
		fields["completed_at"] = at
	}
	return fields
}

// Today returns today's active tasks and tomorrow's non-deleted tasks.
func (s *TaskService) Today(ctx context.Context, ownerID uuid.UUID) (*DayView, error) {
	today := daywindow.Today(s.clock)
	tomorrow := today.Next()

	todayTasks, err := s.store.Tasks().Find(ctx, repository.TaskQuery{
		OwnerID: ownerID,
		Window:  &today,
		States:  []model.TaskState{model.TaskActive},
	})
	if err != nil {
		return nil, storage("list today", err)
	}
	tomorrowTasks, err := s.store.Tasks().Find(ctx, repository.TaskQuery{
		OwnerID: ownerID,
		Window:  &tomorrow,
		States:  repository.Visible,
	})
	if err != nil {
		return nil, storage("list tomorrow", err)
	}
	return &DayView{Today: today, TodayTasks: todayTasks, TomorrowTasks: tomorrowTasks}, nil
}

// ForDate lists the active tasks of the window containing date.
func (s *TaskService) ForDate(ctx context.Context, ownerID uuid.UUID, date time.Time) ([]model.Task, error) {
	w := daywindow.Compute(date.In(s.clock.Now().Location()))
	tasks, err := s.store.Tasks().Find(ctx, repository.TaskQuery{
		OwnerID: ownerID,
		Window:  &w,
		States:  []model.TaskState{model.TaskActive},
	})
	if err != nil {
		return nil, storage("list tasks", err)
	}
	return tasks, nil
}

// CheckDuplicate looks for an unfinished active task with the same title
// (ignoring case) in the window containing date.
func (s *TaskService) CheckDuplicate(ctx context.Context, ownerID uuid.UUID, title string, date *time.Time) (*model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationf("title is required")
	}
	w := daywindow.Today(s.clock)
	if date != nil {
		w = daywindow.Compute(date.In(s.clock.Now().Location()))
	}
	notCompleted := false
	existing, err := s.store.Tasks().FindOne(ctx, repository.TaskQuery{
		OwnerID:   ownerID,
		Window:    &w,
		Title:     title,
		TitleFold: true,
		States:    []model.TaskState{model.TaskActive},
		Completed: &notCompleted,
	})
	if err != nil {
		return nil, storage("check duplicate", err)
	}
	return existing, nil
}

// MoveForward carries every unfinished active task of w into the next
// window. The source stays where it is, marked moved; a copy pointing back
// at it is created unless the next window already has a task with the
// same title and category. Each task is handled in its own transaction and
// failures are reported per item.
func (s *TaskService) MoveForward(ctx context.Context, ownerID uuid.UUID, w daywindow.Window) (*MoveForwardResult, error) {
	notCompleted := false
	sources, err := s.store.Tasks().Find(ctx, repository.TaskQuery{
		OwnerID:   ownerID,
		Window:    &w,
		States:    []model.TaskState{model.TaskActive},
		Completed: &notCompleted,
	})
	if err != nil {
		return nil, storage("list tasks to move", err)
	}

	next := w.Next()
	result := &MoveForwardResult{
		Created:      []model.Task{},
		MovedTaskIDs: []uuid.UUID{},
		Results:      make([]ItemResult, 0, len(sources)),
	}
	for _, src := range sources {
		item := ItemResult{TaskID: src.ID, Title: src.Title}
		var created *model.Task

		err := s.store.Atomic(ctx, func(st repository.Store) error {
			current, err := st.Tasks().GetByID(ctx, ownerID, src.ID)
			if err != nil {
				return storage("reload task", err)
			}
			if current.State != model.TaskActive || current.Completed {
				return invalidOperation("task changed while moving")
			}

			dup, err := st.Tasks().FindOne(ctx, repository.TaskQuery{
				OwnerID:    ownerID,
				Window:     &next,
				Title:      current.Title,
				CategoryID: &current.CategoryID,
				States:     repository.Visible,
			})
			if err != nil {
				return storage("look up next window", err)
			}
			if dup == nil {
				origin := current.ID
				created = &model.Task{
					OwnerID:        ownerID,
					CategoryID:     current.CategoryID,
					Title:          current.Title,
					Description:    current.Description,
					Priority:       current.Priority,
					WindowDate:     next.Start,
					State:          model.TaskActive,
					OriginalTaskID: &origin,
				}
				if err := st.Tasks().Create(ctx, created); err != nil {
					return storage("create forward copy", err)
				}
			}
			return storage("mark moved", st.Tasks().UpdateFields(ctx, current.ID, map[string]interface{}{
				"state": model.TaskMoved,
			}))
		})
		if err != nil {
			zap.L().Warn("move forward failed", zap.String("task_id", src.ID.String()), zap.Error(err))
			item.Status = StatusError
			item.Error = err.Error()
			result.Results = append(result.Results, item)
			continue
		}

		if created != nil {
			created.Category = src.Category
			result.Created = append(result.Created, *created)
			item.Status = StatusMoved
		} else {
			item.Status = StatusMerged
		}
		result.MovedTaskIDs = append(result.MovedTaskIDs, src.ID)
		result.Results = append(result.Results, item)
	}
	return result, nil
}

// OwnersWithOpenTasks lists owners with unfinished active tasks in w.
func (s *TaskService) OwnersWithOpenTasks(ctx context.Context, w daywindow.Window) ([]uuid.UUID, error) {
	owners, err := s.store.Tasks().OwnersWithOpenTasks(ctx, w)
	if err != nil {
		return nil, storage("find owners with open tasks", err)
	}
	return owners, nil
}

// MoveToTomorrow is MoveForward applied to today's window.
func (s *TaskService) MoveToTomorrow(ctx context.Context, ownerID uuid.UUID) (*MoveForwardResult, error) {
	return s.MoveForward(ctx, ownerID, daywindow.Today(s.clock))
}

// MoveBackward returns a tomorrow task to today. Any other record with the
// same title and category still sitting in today's window, including the
// hidden source of an earlier forward move, is removed first so it cannot
// resurface later.
func (s *TaskService) MoveBackward(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	today := daywindow.Today(s.clock)
	tomorrow := today.Next()

	err := s.store.Atomic(ctx, func(st repository.Store) error {
		task, err := getTask(ctx, st, ownerID, id)
		if err != nil {
			return err
		}
		if task.State != model.TaskActive {
			return invalidOperation("only active tasks can be moved back")
		}
		if !tomorrow.Contains(task.WindowDate) {
			return invalidOperation("task is not scheduled for tomorrow")
		}

		if _, err := st.Tasks().DeleteMatching(ctx, repository.TaskQuery{
			OwnerID:    ownerID,
			Window:     &today,
			Title:      task.Title,
			CategoryID: &task.CategoryID,
			States:     repository.Visible,
			ExcludeID:  &task.ID,
		}); err != nil {
			return storage("purge today duplicates", err)
		}
		if task.OriginalTaskID != nil {
			if _, err := st.Tasks().DeleteMatching(ctx, repository.TaskQuery{
				OwnerID: ownerID,
				IDs:     []uuid.UUID{*task.OriginalTaskID},
				States:  []model.TaskState{model.TaskMoved},
			}); err != nil {
				return storage("purge original task", err)
			}
		}

		return storage("move task back", st.Tasks().UpdateFields(ctx, task.ID, map[string]interface{}{
			"window_date":      today.Start,
			"original_task_id": nil,
		}))
	})
	if err != nil {
		return nil, err
	}
	return getTask(ctx, s.store, ownerID, id)
}

// SoftDelete marks a task deleted.
func (s *TaskService) SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.delete(ctx, ownerID, id, false)
}

// HardDelete removes a task record.
func (s *TaskService) HardDelete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.delete(ctx, ownerID, id, true)
}

// delete also removes the hidden moved source left in the previous window
// by a forward move; otherwise a later move back would bring it back.
func (s *TaskService) delete(ctx context.Context, ownerID, id uuid.UUID, hard bool) error {
	return s.store.Atomic(ctx, func(st repository.Store) error {
		task, err := getTask(ctx, st, ownerID, id)
		if err != nil {
			return err
		}

		prev := daywindow.Compute(task.WindowDate).Prev()
		priority := task.Priority
		if _, err := st.Tasks().DeleteMatching(ctx, repository.TaskQuery{
			OwnerID:    ownerID,
			Window:     &prev,
			Title:      task.Title,
			CategoryID: &task.CategoryID,
			Priority:   &priority,
			States:     []model.TaskState{model.TaskMoved},
		}); err != nil {
			return storage("purge moved source", err)
		}
		if task.OriginalTaskID != nil {
			if _, err := st.Tasks().DeleteMatching(ctx, repository.TaskQuery{
				OwnerID: ownerID,
				IDs:     []uuid.UUID{*task.OriginalTaskID},
				States:  []model.TaskState{model.TaskMoved},
			}); err != nil {
				return storage("purge original task", err)
			}
		}

		if hard {
			return storage("delete task", st.Tasks().Delete(ctx, task.ID))
		}
		if task.Deleted() {
			return nil
		}
		return storage("soft delete task", st.Tasks().UpdateFields(ctx, task.ID, map[string]interface{}{
			"state": model.TaskDeleted,
		}))
	})
}

func getTask(ctx context.Context, st repository.Store, ownerID, id uuid.UUID) (*model.Task, error) {
	task, err := st.Tasks().GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, notFound("task")
		}
		return nil, storage("get task", err)
	}
	return task, nil
}

func resolveCategory(ctx context.Context, st repository.Store, ownerID, id uuid.UUID) (*model.Category, error) {
	if id == uuid.Nil {
		return nil, validationf("category is required")
	}
	category, err := st.Categories().ResolveActive(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, validationf("invalid category")
		}
		return nil, storage("resolve category", err)
	}
	return category, nil
}

func validatePriority(p int) error {
	if p < model.PriorityHigh || p > model.PriorityLow {
		return validationf("priority must be between %d and %d", model.PriorityHigh, model.PriorityLow)
	}
	return nil
}
