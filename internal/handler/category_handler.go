package handler

import (
	"context"
	"net/http"

	"daytracker/internal/model"
	"daytracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CategoryService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Category, error)
	Create(ctx context.Context, ownerID uuid.UUID, in service.CategoryInput) (*model.Category, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in service.CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

var _ CategoryService = (*service.CategoryService)(nil)

type CategoryHandler struct {
	categories CategoryService
}

func NewCategoryHandler(categories CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type CategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (h *CategoryHandler) GetAll(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	categories, err := h.categories.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		resp[i] = toCategoryResponse(category)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	category, err := h.categories.Create(c.Request.Context(), userID, service.CategoryInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCategoryResponse(*category))
}

func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "category")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	category, err := h.categories.Update(c.Request.Context(), userID, categoryID, service.CategoryInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCategoryResponse(*category))
}

// Delete deactivates the category; existing tasks keep it.
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	categoryID, ok := pathID(c, "category")
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), userID, categoryID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
