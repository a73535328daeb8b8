package service

import (
	"context"
	"sort"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"
	"daytracker/internal/repository"

	"github.com/google/uuid"
)

// PriorityChange is one entry of a reorder result.
type PriorityChange struct {
	TaskID   uuid.UUID `json:"task_id"`
	Priority int       `json:"new_priority"`
}

// sortByPriority orders tasks by priority, then id.
func sortByPriority(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority < tasks[j].Priority
		}
		return tasks[i].ID.String() < tasks[j].ID.String()
	})
}

func activeIn(ctx context.Context, st repository.Store, ownerID uuid.UUID, w daywindow.Window) ([]model.Task, error) {
	tasks, err := st.Tasks().Find(ctx, repository.TaskQuery{
		OwnerID: ownerID,
		Window:  &w,
		States:  []model.TaskState{model.TaskActive},
	})
	if err != nil {
		return nil, storage("list window", err)
	}
	sortByPriority(tasks)
	return tasks, nil
}

// MoveUp swaps the task's priority with the task ordered right above it.
// It returns the window's new order. Neighbours with equal priority swap
// equal values, so the order stays as the id tiebreak has it.
func (s *TaskService) MoveUp(ctx context.Context, ownerID, id uuid.UUID) ([]model.Task, error) {
	return s.shift(ctx, ownerID, id, -1)
}

// MoveDown swaps the task's priority with the task ordered right below it.
func (s *TaskService) MoveDown(ctx context.Context, ownerID, id uuid.UUID) ([]model.Task, error) {
	return s.shift(ctx, ownerID, id, 1)
}

func (s *TaskService) shift(ctx context.Context, ownerID, id uuid.UUID, step int) ([]model.Task, error) {
	var ordered []model.Task
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		task, err := getTask(ctx, st, ownerID, id)
		if err != nil {
			return err
		}
		if task.State != model.TaskActive {
			return invalidOperation("only active tasks can be reordered")
		}

		w := daywindow.Compute(task.WindowDate)
		tasks, err := activeIn(ctx, st, ownerID, w)
		if err != nil {
			return err
		}
		idx := -1
		for i := range tasks {
			if tasks[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound("task")
		}
		neighbor := idx + step
		if neighbor < 0 {
			return invalidOperation("task is already at the top")
		}
		if neighbor >= len(tasks) {
			return invalidOperation("task is already at the bottom")
		}

		a, b := tasks[idx], tasks[neighbor]
		if err := st.Tasks().UpdateFields(ctx, a.ID, map[string]interface{}{"priority": b.Priority}); err != nil {
			return storage("swap priority", err)
		}
		if err := st.Tasks().UpdateFields(ctx, b.ID, map[string]interface{}{"priority": a.Priority}); err != nil {
			return storage("swap priority", err)
		}

		ordered, err = activeIn(ctx, st, ownerID, w)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ordered, nil
}

// Reorder assigns priorities from list position: the first task gets 1, the
// second 2 and every later one 3.
func (s *TaskService) Reorder(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) ([]PriorityChange, error) {
	if len(orderedIDs) == 0 {
		return nil, validationf("orderedTaskIds must be a non-empty array")
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return nil, validationf("task %s is listed more than once", id)
		}
		seen[id] = struct{}{}
	}

	changes := make([]PriorityChange, len(orderedIDs))
	err := s.store.Atomic(ctx, func(st repository.Store) error {
		owned, err := st.Tasks().Find(ctx, repository.TaskQuery{
			OwnerID: ownerID,
			IDs:     orderedIDs,
			States:  repository.Visible,
		})
		if err != nil {
			return storage("load tasks", err)
		}
		if len(owned) != len(orderedIDs) {
			return validationf("some task ids do not exist")
		}

		for i, id := range orderedIDs {
			priority := i + 1
			if priority > model.PriorityLow {
				priority = model.PriorityLow
			}
			if err := st.Tasks().UpdateFields(ctx, id, map[string]interface{}{"priority": priority}); err != nil {
				return storage("set priority", err)
			}
			changes[i] = PriorityChange{TaskID: id, Priority: priority}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}
