package services

import (
	"strings"
	"time"

	"budgeteer/internal/expenses"
	"budgeteer/internal/models"
)

// stagedCategory is a category discovered from an expense description.
type stagedCategory struct {
	name  string
	items models.ItemList
}

// creationPlan is what CreateCategory will write.
type creationPlan struct {
	items  models.ItemList
	staged []stagedCategory
}

// planCreation walks the user's expenses in order. An expense whose description
// equals requested supplies the new category's items; when several match, the
// last one wins. Every other distinct description that names no existing
// category is staged once, with the items of its first expense.
func planCreation(requested string, existing map[string]bool, list []expenses.Expense, now time.Time) creationPlan {
	plan := creationPlan{items: models.ItemList{}}
	seen := make(map[string]bool)

	for _, expense := range list {
		description := strings.TrimSpace(expense.Description)
		if description == "" {
			continue
		}
		items := expenses.NormalizeItems(expense.Items, now)

		if description == requested {
			plan.items = items
			continue
		}
		if seen[description] || existing[description] {
			continue
		}
		seen[description] = true
		plan.staged = append(plan.staged, stagedCategory{name: description, items: items})
	}
	return plan
}

// groupByDescription maps each non-blank description to the concatenation of
// its expenses' items, in expense order.
func groupByDescription(list []expenses.Expense, now time.Time) map[string]models.ItemList {
	grouped := make(map[string]models.ItemList)
	for _, expense := range list {
		description := strings.TrimSpace(expense.Description)
		if description == "" {
			continue
		}
		grouped[description] = append(grouped[description], expenses.NormalizeItems(expense.Items, now)...)
	}
	return grouped
}
