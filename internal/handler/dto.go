package handler

import (
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"
	"daytracker/internal/service"
)

// CategoryResponse is the category as the API shows it.
type CategoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// TaskResponse is the task as the API shows it. Date is the start of the
// task's window.
type TaskResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Priority       int               `json:"priority"`
	CategoryID     string            `json:"category_id"`
	Category       *CategoryResponse `json:"category,omitempty"`
	Date           time.Time         `json:"date"`
	Completed      bool              `json:"completed"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	State          string            `json:"state"`
	OriginalTaskID *string           `json:"original_task_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type BlueprintPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

type FireTimePayload struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type RecurrencePayload struct {
	Type       string          `json:"type"`
	Interval   int             `json:"interval"`
	DaysOfWeek []int           `json:"days_of_week,omitempty"`
	DayOfMonth int             `json:"day_of_month,omitempty"`
	Time       *FireTimePayload `json:"time,omitempty"`
}

// TemplateResponse is the recurring template as the API shows it.
type TemplateResponse struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	CategoryID        string            `json:"category_id"`
	Category          *CategoryResponse `json:"category,omitempty"`
	TaskTemplate      BlueprintPayload  `json:"task_template"`
	Recurrence        RecurrencePayload `json:"recurrence"`
	IsActive          bool              `json:"is_active"`
	NextRun           time.Time         `json:"next_run"`
	LastRun           *time.Time        `json:"last_run,omitempty"`
	CreatedTasksCount int               `json:"created_tasks_count"`
}

func toCategoryResponse(c model.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID.String(), Name: c.Name, Color: c.Color, Icon: c.Icon}
}

func toTaskResponse(t model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		CategoryID:  t.CategoryID.String(),
		Date:        t.WindowDate,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		State:       string(t.State),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.Category.ID == t.CategoryID {
		category := toCategoryResponse(t.Category)
		resp.Category = &category
	}
	if t.OriginalTaskID != nil {
		original := t.OriginalTaskID.String()
		resp.OriginalTaskID = &original
	}
	return resp
}

func toTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return out
}

func toTemplateResponse(t model.Template) TemplateResponse {
	resp := TemplateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		CategoryID:  t.CategoryID.String(),
		TaskTemplate: BlueprintPayload{
			Title:       t.TaskTemplate.Title,
			Description: t.TaskTemplate.Description,
			Priority:    t.TaskTemplate.Priority,
		},
		Recurrence:        toRecurrencePayload(t.Recurrence),
		IsActive:          t.IsActive,
		NextRun:           t.NextRun,
		LastRun:           t.LastRun,
		CreatedTasksCount: t.CreatedTasksCount,
	}
	if t.Category.ID == t.CategoryID {
		category := toCategoryResponse(t.Category)
		resp.Category = &category
	}
	return resp
}

func toRecurrencePayload(r model.Recurrence) RecurrencePayload {
	return RecurrencePayload{
		Type:       string(r.Type),
		Interval:   r.Interval,
		DaysOfWeek: []int(r.DaysOfWeek),
		DayOfMonth: r.DayOfMonth,
		Time:       &FireTimePayload{Hour: r.Time.Hour, Minute: r.Time.Minute},
	}
}

// input leaves Time nil when the request omits it.
func (p RecurrencePayload) input() service.RecurrenceInput {
	in := service.RecurrenceInput{
		Type:       model.RecurrenceType(p.Type),
		Interval:   p.Interval,
		DaysOfWeek: p.DaysOfWeek,
		DayOfMonth: p.DayOfMonth,
	}
	if p.Time != nil {
		in.Time = &model.FireTime{Hour: p.Time.Hour, Minute: p.Time.Minute}
	}
	return in
}

func (p BlueprintPayload) model() model.TaskBlueprint {
	return model.TaskBlueprint{Title: p.Title, Description: p.Description, Priority: p.Priority}
}

// DayResponse is the main screen payload.
type DayResponse struct {
	WindowStart   time.Time      `json:"window_start"`
	WindowEnd     time.Time      `json:"window_end"`
	TodayTasks    []TaskResponse `json:"today_tasks"`
	TomorrowTasks []TaskResponse `json:"tomorrow_tasks"`
}

func toDayResponse(v *service.DayView) DayResponse {
	return DayResponse{
		WindowStart:   v.Today.Start,
		WindowEnd:     v.Today.End,
		TodayTasks:    toTaskResponses(v.TodayTasks),
		TomorrowTasks: toTaskResponses(v.TomorrowTasks),
	}
}

// windowResponse echoes which window a dated listing resolved to.
type windowResponse struct {
	Date        string         `json:"date"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	Tasks       []TaskResponse `json:"tasks"`
}

func toWindowResponse(w daywindow.Window, tasks []model.Task) windowResponse {
	return windowResponse{Date: w.Key(), WindowStart: w.Start, WindowEnd: w.End, Tasks: toTaskResponses(tasks)}
}
