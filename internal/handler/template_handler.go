package handler

import (
	"context"
	"net/http"
	"time"

	"daytracker/internal/model"
	"daytracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TemplateService is the part of service.TemplateService the template
// routes use.
type TemplateService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.TemplateInput) (*model.Template, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Template, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in service.TemplateUpdate) (*model.Template, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error)
	Toggle(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error)
	Run(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, *model.Template, error)
	ProcessPending(ctx context.Context, ownerID uuid.UUID, now time.Time) (*service.ProcessResult, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*service.TemplateStats, error)
}

var _ TemplateService = (*service.TemplateService)(nil)

type TemplateHandler struct {
	templates TemplateService
	clock     service.Clock
}

func NewTemplateHandler(templates TemplateService, clock service.Clock) *TemplateHandler {
	return &TemplateHandler{templates: templates, clock: clock}
}

type CreateTemplateRequest struct {
	Name         string            `json:"name" binding:"required"`
	Description  string            `json:"description"`
	CategoryID   string            `json:"category_id" binding:"required,uuid"`
	TaskTemplate BlueprintPayload  `json:"task_template"`
	Recurrence   RecurrencePayload `json:"recurrence"`
	IsActive     *bool             `json:"is_active"`
}

type UpdateTemplateRequest struct {
	Name         *string            `json:"name"`
	Description  *string            `json:"description"`
	CategoryID   *string            `json:"category_id" binding:"omitempty,uuid"`
	TaskTemplate *BlueprintPayload  `json:"task_template"`
	Recurrence   *RecurrencePayload `json:"recurrence"`
	IsActive     *bool              `json:"is_active"`
}

func (h *TemplateHandler) GetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	templates, err := h.templates.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]TemplateResponse, len(templates))
	for i, tpl := range templates {
		resp[i] = toTemplateResponse(tpl)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TemplateHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	tpl, err := h.templates.Create(c.Request.Context(), userID, service.TemplateInput{
		Name:         req.Name,
		Description:  req.Description,
		CategoryID:   uuid.MustParse(req.CategoryID),
		TaskTemplate: req.TaskTemplate.model(),
		Recurrence:   req.Recurrence.input(),
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateResponse(*tpl))
}

func (h *TemplateHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "template")
	if !ok {
		return
	}

	tpl, err := h.templates.Get(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(*tpl))
}

func (h *TemplateHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "template")
	if !ok {
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	in := service.TemplateUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.CategoryID != nil {
		categoryID := uuid.MustParse(*req.CategoryID)
		in.CategoryID = &categoryID
	}
	if req.TaskTemplate != nil {
		blueprint := req.TaskTemplate.model()
		in.TaskTemplate = &blueprint
	}
	if req.Recurrence != nil {
		rec := req.Recurrence.input()
		in.Recurrence = &rec
	}

	tpl, err := h.templates.Update(c.Request.Context(), userID, templateID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(*tpl))
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "template")
	if !ok {
		return
	}

	tpl, err := h.templates.Delete(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully", "template": toTemplateResponse(*tpl)})
}

func (h *TemplateHandler) Toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "template")
	if !ok {
		return
	}

	tpl, err := h.templates.Toggle(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(*tpl))
}

// Run creates the template's task for today without touching its schedule.
func (h *TemplateHandler) Run(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	templateID, ok := pathID(c, "template")
	if !ok {
		return
	}

	task, tpl, err := h.templates.Run(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"task":     toTaskResponse(*task),
		"template": toTemplateResponse(*tpl),
	})
}

func (h *TemplateHandler) ProcessPending(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.templates.ProcessPending(c.Request.Context(), userID, h.clock.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TemplateHandler) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.templates.Stats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
