package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"
	"daytracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskService is the part of service.TaskService the task routes use.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTaskInput) (*model.Task, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in service.UpdateTaskInput) (*model.Task, error)
	Complete(ctx context.Context, ownerID, id uuid.UUID, completed bool, completedAt *time.Time) (*model.Task, error)
	Today(ctx context.Context, ownerID uuid.UUID) (*service.DayView, error)
	ForDate(ctx context.Context, ownerID uuid.UUID, date time.Time) ([]model.Task, error)
	CheckDuplicate(ctx context.Context, ownerID uuid.UUID, title string, date *time.Time) (*model.Task, error)
	MoveToTomorrow(ctx context.Context, ownerID uuid.UUID) (*service.MoveForwardResult, error)
	MoveBackward(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error)
	MoveUp(ctx context.Context, ownerID, id uuid.UUID) ([]model.Task, error)
	MoveDown(ctx context.Context, ownerID, id uuid.UUID) ([]model.Task, error)
	Reorder(ctx context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) ([]service.PriorityChange, error)
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID) error
	HardDelete(ctx context.Context, ownerID, id uuid.UUID) error
}

// HistoryService reports on completed tasks.
type HistoryService interface {
	CompletedHistory(ctx context.Context, ownerID uuid.UUID, days int) (*service.CompletedHistory, error)
	CompletionStats(ctx context.Context, ownerID uuid.UUID, days int) (*service.CompletionStats, error)
}

var (
	_ TaskService    = (*service.TaskService)(nil)
	_ HistoryService = (*service.HistoryService)(nil)
)

type TaskHandler struct {
	tasks   TaskService
	history HistoryService
	loc     *time.Location
}

// NewTaskHandler builds the task routes. loc resolves plain dates sent by
// clients.
func NewTaskHandler(tasks TaskService, history HistoryService, loc *time.Location) *TaskHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TaskHandler{tasks: tasks, history: history, loc: loc}
}

// CreateTaskRequest creates a task. Date is RFC3339 or YYYY-MM-DD; empty
// means today.
type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	CategoryID  string `json:"category_id" binding:"required,uuid"`
	Date        string `json:"date"`
}

// UpdateTaskRequest is a partial update.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *int       `json:"priority"`
	CategoryID  *string    `json:"category_id" binding:"omitempty,uuid"`
	Completed   *bool      `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CompleteTaskRequest toggles completion; an empty body completes.
type CompleteTaskRequest struct {
	Completed   *bool      `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ReorderRequest struct {
	OrderedTaskIDs []string `json:"orderedTaskIds"`
}

type CheckDuplicateRequest struct {
	Title string `json:"title" binding:"required"`
	Date  string `json:"date"`
}

// MoveToTomorrowResponse reports a forward move of today's open tasks.
type MoveToTomorrowResponse struct {
	MovedCount   int                  `json:"moved_count"`
	Created      []TaskResponse       `json:"created"`
	MovedTaskIDs []uuid.UUID          `json:"moved_task_ids"`
	Results      []service.ItemResult `json:"results"`
}

// Today lists today's tasks and what is already planned for tomorrow.
func (h *TaskHandler) Today(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.tasks.Today(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDayResponse(view))
}

// ByDate lists the active tasks of the window for :date.
func (h *TaskHandler) ByDate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	date, err := parseDate(c.Param("date"), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
		return
	}

	tasks, err := h.tasks.ForDate(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toWindowResponse(daywindow.Compute(date.In(h.loc)), tasks))
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	in := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  uuid.MustParse(req.CategoryID),
	}
	if req.Date != "" {
		date, err := parseDate(req.Date, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
			return
		}
		in.Date = &date
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(*task))
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Completed:   req.Completed,
		CompletedAt: req.CompletedAt,
	}
	if req.CategoryID != nil {
		categoryID := uuid.MustParse(*req.CategoryID)
		in.CategoryID = &categoryID
	}

	task, err := h.tasks.Update(c.Request.Context(), userID, taskID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	var req CompleteTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}
	completed := req.Completed == nil || *req.Completed

	task, err := h.tasks.Complete(c.Request.Context(), userID, taskID, completed, req.CompletedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

// Delete soft-deletes by default; ?hard=true removes the record.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	hard, _ := strconv.ParseBool(c.Query("hard"))
	var err error
	if hard {
		err = h.tasks.HardDelete(c.Request.Context(), userID, taskID)
	} else {
		err = h.tasks.SoftDelete(c.Request.Context(), userID, taskID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *TaskHandler) MoveToTomorrow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.tasks.MoveToTomorrow(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MoveToTomorrowResponse{
		MovedCount:   len(res.MovedTaskIDs),
		Created:      toTaskResponses(res.Created),
		MovedTaskIDs: res.MovedTaskIDs,
		Results:      res.Results,
	})
}

func (h *TaskHandler) MoveBack(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.tasks.MoveBackward(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

func (h *TaskHandler) MoveUp(c *gin.Context) {
	h.shift(c, h.tasks.MoveUp)
}

func (h *TaskHandler) MoveDown(c *gin.Context) {
	h.shift(c, h.tasks.MoveDown)
}

func (h *TaskHandler) shift(c *gin.Context, move func(ctx context.Context, ownerID, id uuid.UUID) ([]model.Task, error)) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	tasks, err := move(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": toTaskResponses(tasks)})
}

func (h *TaskHandler) Reorder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	ids := make([]uuid.UUID, 0, len(req.OrderedTaskIDs))
	for _, raw := range req.OrderedTaskIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
			return
		}
		ids = append(ids, id)
	}

	changes, err := h.tasks.Reorder(c.Request.Context(), userID, ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered successfully", "updates": changes})
}

func (h *TaskHandler) CheckDuplicate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CheckDuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	var date *time.Time
	if req.Date != "" {
		parsed, err := parseDate(req.Date, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format"})
			return
		}
		date = &parsed
	}

	existing, err := h.tasks.CheckDuplicate(c.Request.Context(), userID, req.Title, date)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing == nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "task": toTaskResponse(*existing)})
}

func (h *TaskHandler) CompletedHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := h.history.CompletedHistory(c.Request.Context(), userID, queryDays(c))
	if err != nil {
		respondError(c, err)
		return
	}

	grouped := make(map[string][]TaskResponse, len(history.Grouped))
	for day, tasks := range history.Grouped {
		grouped[day] = toTaskResponses(tasks)
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks":       toTaskResponses(history.Tasks),
		"grouped":     grouped,
		"total_count": history.TotalCount,
	})
}

func (h *TaskHandler) CompletedStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.history.CompletionStats(c.Request.Context(), userID, queryDays(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// queryDays reads ?days; anything unusable falls back to the service default.
func queryDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days < 0 {
		return 0
	}
	return days
}
