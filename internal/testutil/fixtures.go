package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgeteer/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh user identifier. Users live in the identity
// provider, so there is no row to create.
func NewUserID() string {
	return fmt.Sprintf("user-%d", nextID())
}

// NewItem builds an item record priced in whole units.
func NewItem(id, name string, price int64, quantity int, createdAt time.Time) models.Item {
	return models.Item{
		ID:        id,
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Quantity:  quantity,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// CreateTestCategory stores a category with the given name and items.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID, name string, items ...models.Item) *models.Category {
	t.Helper()

	if name == "" {
		name = fmt.Sprintf("Test Category %d", nextID())
	}
	list := models.ItemList(items)
	if list == nil {
		list = models.ItemList{}
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Items:  list,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget stores a budget of 100.00 for the given category and month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID, month string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      month,
		Limit:      decimal.NewFromInt(100),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
