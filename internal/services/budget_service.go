package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/events"
	"budgeteer/internal/logger"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
	"budgeteer/internal/uuid"
	"budgeteer/internal/validator"
)

const monthLayout = "2006-01"

// budgetService handles budget-related business logic.
type budgetService struct {
	db         *gorm.DB
	categories CategoryStore
	publisher  events.Publisher
	log        *zap.SugaredLogger
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, categories CategoryStore, publisher events.Publisher, log *zap.SugaredLogger) BudgetServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &budgetService{db: db, categories: categories, publisher: publisher, log: log}
}

// maxLimit is the first value numeric(12,2) cannot hold.
var maxLimit = decimal.New(1, 10)

// validateInput checks month and limit and that the category belongs to the user.
func (s *budgetService) validateInput(ctx context.Context, userID string, input BudgetInput) error {
	if !validator.ValidMonth(input.Month) {
		return apperrors.ErrInvalidMonth
	}
	if !input.Limit.IsPositive() {
		return apperrors.ErrInvalidLimit
	}
	// limit_amount is numeric(12,2).
	if !input.Limit.Equal(input.Limit.Truncate(2)) {
		return apperrors.ErrInvalidLimitPrecision
	}
	if input.Limit.GreaterThanOrEqual(maxLimit) {
		return apperrors.ErrLimitTooLarge
	}
	category, err := s.categories.FindByID(ctx, userID, input.CategoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// UpsertBudget sets the limit for a category and month, creating the budget
// when there is none yet.
func (s *budgetService) UpsertBudget(ctx context.Context, userID string, input BudgetInput) (*BudgetUpsert, error) {
	if err := s.validateInput(ctx, userID, input); err != nil {
		return nil, err
	}

	result, err := s.upsert(ctx, userID, input)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent create; the row exists now.
		result, err = s.upsert(ctx, userID, input)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	event := events.Event{
		Type:       events.BudgetUpserted,
		UserID:     userID,
		ResourceID: result.Budget.ID,
		RequestID:  logger.RequestID(ctx),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.FromContext(ctx, s.log).Warnw("failed to publish event",
			"type", event.Type, "resource_id", event.ResourceID, "error", err)
	}
	return result, nil
}

func (s *budgetService) upsert(ctx context.Context, userID string, input BudgetInput) (*BudgetUpsert, error) {
	db := s.db.WithContext(ctx)

	var budget models.Budget
	err := db.Where("user_id = ? AND month = ? AND category_id = ?", userID, input.Month, input.CategoryID).
		Take(&budget).Error
	switch {
	case err == nil:
		if err := db.Model(&budget).Update("limit_amount", input.Limit).Error; err != nil {
			return nil, err
		}
		budget.Limit = input.Limit
		return &BudgetUpsert{Budget: &budget}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		budget = models.Budget{
			UserID:     userID,
			Month:      input.Month,
			CategoryID: input.CategoryID,
			Limit:      input.Limit,
		}
		if err := db.Create(&budget).Error; err != nil {
			return nil, err
		}
		return &BudgetUpsert{Budget: &budget, Created: true}, nil
	default:
		return nil, err
	}
}

// GetUserBudgets returns a paginated list of budgets for the user, optionally
// restricted to one month.
func (s *budgetService) GetUserBudgets(
	ctx context.Context,
	userID, month string,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Budget{}).Where("user_id = ?", userID)
	if month != "" {
		if !validator.ValidMonth(month) {
			return nil, apperrors.ErrInvalidMonth
		}
		base = base.Where("month = ?", month)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Order("month DESC").Order("created_at ASC").Scopes(page.Scope()).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	if !uuid.IsValid(budgetID) {
		return nil, apperrors.ErrBudgetNotFound
	}
	var budget models.Budget
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", budgetID, userID).Take(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget replaces a budget's month, category and limit.
func (s *budgetService) UpdateBudget(ctx context.Context, userID, budgetID string, input BudgetInput) (*models.Budget, error) {
	if err := s.validateInput(ctx, userID, input); err != nil {
		return nil, err
	}
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"month":        input.Month,
		"category_id":  input.CategoryID,
		"limit_amount": input.Limit,
	}
	if err := s.db.WithContext(ctx).Model(budget).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateBudget, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget.Month = input.Month
	budget.CategoryID = input.CategoryID
	budget.Limit = input.Limit
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetBudgetProgress sums the category's items created during the budget's
// month and compares the total with the limit.
func (s *budgetService) GetBudgetProgress(ctx context.Context, userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.FindByID(ctx, userID, budget.CategoryID)
	if err != nil {
		return nil, err
	}

	spent := decimal.Zero
	if category != nil {
		spent = spentInMonth(category.Items, budget.Month)
	}

	remaining := budget.Limit.Sub(spent)
	var percentage float64
	if budget.Limit.IsPositive() {
		percentage = spent.Div(budget.Limit).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}

	return &BudgetProgress{
		BudgetID:   budget.ID,
		Month:      budget.Month,
		CategoryID: budget.CategoryID,
		Limit:      budget.Limit,
		Spent:      spent,
		Remaining:  remaining,
		Percentage: percentage,
	}, nil
}

// spentInMonth totals price times quantity over the records created in month.
// Records without a readable timestamp and raw entries do not count.
func spentInMonth(items models.ItemList, month string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		created, ok := item.CreatedTime()
		if !ok || created.Format(monthLayout) != month {
			continue
		}
		total = total.Add(item.Total())
	}
	return total
}
