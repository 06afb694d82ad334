package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/expenses"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// ExpenseFetcher returns a user's expenses. It never fails: when the expense
// service cannot be reached the result is empty.
type ExpenseFetcher interface {
	FetchExpenses(ctx context.Context, userID string) []expenses.Expense
}

// CategoryStore is the persistence contract of the category reconciler.
// Every operation is scoped by user ID; nothing queries across users.
// Failures are returned as *errors.AppError values.
type CategoryStore interface {
	// FindByName returns the live category with that exact name, or nil.
	FindByName(ctx context.Context, userID, name string) (*models.Category, error)
	// FindByID returns the live category with that ID, or nil.
	FindByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	// Insert stores one category. A name collision yields ErrDuplicateCategoryName.
	Insert(ctx context.Context, category *models.Category) error
	// InsertMany stores categories in one statement, skipping names that
	// already exist, and returns the categories that were actually written,
	// in input order. All categories must belong to the same user.
	InsertMany(ctx context.Context, categories []models.Category) ([]models.Category, error)
	// UpdateItems replaces a category's item list and modification time.
	UpdateItems(ctx context.Context, userID, categoryID string, items models.ItemList, updatedAt time.Time) error
	// ListByUser returns all live categories ordered by name ascending.
	ListByUser(ctx context.Context, userID string) ([]models.Category, error)
	// Rename changes a category's name; found is false when no row matched.
	Rename(ctx context.Context, userID, categoryID, name string, updatedAt time.Time) (found bool, err error)
	// Delete removes a category; found is false when no row matched.
	Delete(ctx context.Context, userID, categoryID string) (found bool, err error)
}

// CategoryCreation is the outcome of creating a category.
type CategoryCreation struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Items      models.ItemList `json:"items"`
	// Discovered lists the names of categories created on the side from
	// expense descriptions that had no category yet.
	Discovered []string `json:"discovered"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID, name string) (*CategoryCreation, error)
	GetUserCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// BudgetInput carries the user-supplied budget fields.
type BudgetInput struct {
	Month      string
	CategoryID string
	Limit      decimal.Decimal
}

// BudgetUpsert is the outcome of UpsertBudget.
type BudgetUpsert struct {
	Budget  *models.Budget
	Created bool
}

// BudgetProgress contains spending vs budget data for a budget's month.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	Month      string          `json:"month"`
	CategoryID string          `json:"category_id"`
	Limit      decimal.Decimal `json:"limit"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	UpsertBudget(ctx context.Context, userID string, input BudgetInput) (*BudgetUpsert, error)
	GetUserBudgets(ctx context.Context, userID, month string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, input BudgetInput) (*models.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
	GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
