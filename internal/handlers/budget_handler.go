package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
	"budgeteer/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// BudgetRequest represents the request payload for upserting or updating a budget.
// Month and limit are checked by the service so the error messages stay uniform.
type BudgetRequest struct {
	Month      string          `json:"month"`
	CategoryID string          `json:"category_id" binding:"required,notblank"`
	Limit      decimal.Decimal `json:"limit" swaggertype:"number"`
}

// BudgetListQuery holds the filters of GetBudgets.
type BudgetListQuery struct {
	Month string `form:"month" binding:"omitempty,budget_month"`
	pagination.PageRequest
}

// BudgetResponse is the wire form of a budget.
type BudgetResponse struct {
	BudgetID   string          `json:"budget_id"`
	Month      string          `json:"month"`
	CategoryID string          `json:"category_id"`
	Limit      decimal.Decimal `json:"limit" swaggertype:"number"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// UpsertBudgetResponse is returned by UpsertBudget.
type UpsertBudgetResponse struct {
	Message  string `json:"message"`
	BudgetID string `json:"budget_id"`
}

func newBudgetResponse(b *models.Budget) BudgetResponse {
	return BudgetResponse{
		BudgetID:   b.ID,
		Month:      b.Month,
		CategoryID: b.CategoryID,
		Limit:      b.Limit,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (r BudgetRequest) input() services.BudgetInput {
	return services.BudgetInput{Month: r.Month, CategoryID: r.CategoryID, Limit: r.Limit}
}

// UpsertBudget handles creating or updating the budget of a category for a month.
// @Summary     Upsert a budget
// @Description Set the spending limit of a category for a month, creating the budget if needed
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       user_id path string        true "User ID"
// @Param       request body BudgetRequest true "Budget details"
// @Success     200 {object} UpsertBudgetResponse "Budget created or updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /{user_id}/budgets/upsert [post]
func (h *BudgetHandler) UpsertBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	result, err := h.budgetService.UpsertBudget(c.Request.Context(), userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	action, message := "UPDATE_BUDGET", "Budget updated successfully"
	if result.Created {
		action, message = "CREATE_BUDGET", "Budget created successfully"
	}
	h.auditService.Log(c.Request.Context(), userID, action, "budget", result.Budget.ID, c.ClientIP(),
		map[string]interface{}{"month": req.Month, "category_id": req.CategoryID, "limit": req.Limit.String()})

	c.JSON(http.StatusOK, UpsertBudgetResponse{Message: message, BudgetID: result.Budget.ID})
}

// GetBudgets handles listing budgets for the user.
// @Summary     Get budgets
// @Description Get a paginated list of budgets, optionally for one month
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   path  string true  "User ID"
// @Param       month     query string false "Month filter (YYYY-MM)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 50, max 200)"
// @Success     200 {object} pagination.PageResponse[BudgetResponse] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /{user_id}/budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query BudgetListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	result, err := h.budgetService.GetUserBudgets(c.Request.Context(), userID, query.Month, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data := make([]BudgetResponse, 0, len(result.Data))
	for i := range result.Data {
		data = append(data, newBudgetResponse(&result.Data[i]))
	}
	c.JSON(http.StatusOK, pagination.PageResponse[BudgetResponse]{
		Data:       data,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// GetBudget handles fetching a single budget.
// @Summary     Get budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   path string true "User ID"
// @Param       budget_id path string true "Budget ID"
// @Success     200 {object} BudgetResponse "Budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /{user_id}/budgets/{budget_id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(c.Request.Context(), userID, c.Param("budget_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBudgetResponse(budget))
}

// UpdateBudget handles replacing a budget's month, category and limit.
// @Summary     Update budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   path string        true "User ID"
// @Param       budget_id path string        true "Budget ID"
// @Param       request   body BudgetRequest true "Budget details"
// @Success     200 {object} MessageResponse "Budget updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     409 {object} ErrorResponse "Budget already exists for that month and category"
// @Router      /{user_id}/budgets/{budget_id}/update [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	budgetID := c.Param("budget_id")
	if _, err := h.budgetService.UpdateBudget(c.Request.Context(), userID, budgetID, req.input()); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"month": req.Month, "category_id": req.CategoryID, "limit": req.Limit.String()})

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget updated successfully"})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   path string true "User ID"
// @Param       budget_id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /{user_id}/budgets/{budget_id}/delete [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID := c.Param("budget_id")
	if err := h.budgetService.DeleteBudget(c.Request.Context(), userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}

// GetBudgetProgress handles reporting how much of a budget has been spent.
// @Summary     Get budget progress
// @Description Sum the category's items created during the budget's month against its limit
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   path string true "User ID"
// @Param       budget_id path string true "Budget ID"
// @Success     200 {object} services.BudgetProgress "Budget progress"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /{user_id}/budgets/{budget_id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(c.Request.Context(), userID, c.Param("budget_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
