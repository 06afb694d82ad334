package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgeteer/internal/models"
	"budgeteer/internal/services"
)

// CategoryHandler handles category-related requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CategoryRequest is the payload for creating or renaming a category.
// Blank names are rejected by the service with EMPTY_NAME.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse is the wire form of a category.
type CategoryResponse struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Items      models.ItemList `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CreateCategoryResponse is returned by CreateCategory.
type CreateCategoryResponse struct {
	Message    string          `json:"message"`
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Items      models.ItemList `json:"items"`
	Discovered []string        `json:"discovered"`
}

func newCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{
		CategoryID: c.ID,
		Name:       c.Name,
		Items:      c.Items,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// CreateCategory handles the creation of a new category.
// @Summary     Create a category
// @Description Create a category; its items are taken from the user's expenses with the same description
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       user_id path string          true "User ID"
// @Param       request body CategoryRequest true "Category details"
// @Success     201 {object} CreateCategoryResponse "Category created"
// @Failure     400 {object} ErrorResponse "Empty name or invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /{user_id}/categories/create [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	created, err := h.categoryService.CreateCategory(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "CREATE_CATEGORY", "category", created.CategoryID, c.ClientIP(),
		map[string]interface{}{"name": created.Name, "discovered": created.Discovered})

	c.JSON(http.StatusCreated, CreateCategoryResponse{
		Message:    "Category created successfully",
		CategoryID: created.CategoryID,
		Name:       created.Name,
		Items:      created.Items,
		Discovered: created.Discovered,
	})
}

// GetCategories handles listing the user's categories.
// @Summary     Get categories
// @Description List categories ordered by name, filling empty ones from matching expenses
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       user_id path string true "User ID"
// @Success     200 {array}  CategoryResponse "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /{user_id}/categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.GetUserCategories(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, newCategoryResponse(&categories[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GetCategory handles fetching a single category.
// @Summary     Get category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       user_id     path string true "User ID"
// @Param       category_id path string true "Category ID"
// @Success     200 {object} CategoryResponse "Category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /{user_id}/categories/{category_id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), userID, c.Param("category_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category))
}

// UpdateCategory handles renaming a category.
// @Summary     Rename category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       user_id     path string          true "User ID"
// @Param       category_id path string          true "Category ID"
// @Param       request     body CategoryRequest true "New name"
// @Success     200 {object} MessageResponse "Category updated"
// @Failure     400 {object} ErrorResponse "Empty name or invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /{user_id}/categories/{category_id}/update [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	categoryID := c.Param("category_id")
	category, err := h.categoryService.UpdateCategory(c.Request.Context(), userID, categoryID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "UPDATE_CATEGORY", "category", categoryID, c.ClientIP(),
		map[string]interface{}{"name": category.Name})

	c.JSON(http.StatusOK, MessageResponse{Message: "Category updated successfully"})
}

// DeleteCategory handles deleting a category.
// @Summary     Delete category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       user_id     path string true "User ID"
// @Param       category_id path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /{user_id}/categories/{category_id}/delete [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID := c.Param("category_id")
	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "DELETE_CATEGORY", "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}
